package toolbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/ckassist"
)

// Tool names exposed to the model.
const (
	GetTemplateName    = "get_template"
	CreateTemplateName = "create_template"
)

type getTemplateArgs struct {
	SessionID    string `json:"session_id" jsonschema:"required" jsonschema_description:"The unique identifier for the session (e.g., 'M5.S4')."`
	TemplateType string `json:"template_type,omitempty" jsonschema:"enum=handoff,enum=summary,default=handoff" jsonschema_description:"The type of the template, either 'handoff' or 'summary'. Defaults to 'handoff'."`
}

type createTemplateArgs struct {
	SessionID    string         `json:"session_id" jsonschema:"required" jsonschema_description:"The session ID for the template (e.g., 'M5.S4')."`
	TemplateType string         `json:"template_type" jsonschema:"required,enum=handoff,enum=summary" jsonschema_description:"The type of template, either 'handoff' or 'summary'."`
	Content      string         `json:"content" jsonschema:"required" jsonschema_description:"The markdown content of the template."`
	Status       string         `json:"status,omitempty" jsonschema:"default=draft" jsonschema_description:"The status of the template (e.g., 'draft', 'active'). Defaults to 'draft' if not provided."`
	Metadata     map[string]any `json:"metadata,omitempty" jsonschema_description:"Optional object with additional metadata (e.g., {'source': 'ai_studio', 'tags': ['feature']})."`
}

type templateTool struct {
	tool   ckassist.Tool
	handle HandlerFunc
}

func templateTools(svc ckassist.TemplateService) []templateTool {
	return []templateTool{
		{tool: GetTemplateTool(), handle: getTemplateHandler(svc)},
		{tool: CreateTemplateTool(), handle: createTemplateHandler(svc)},
	}
}

// GetTemplateTool returns the declaration for get_template.
func GetTemplateTool() ckassist.Tool {
	return ckassist.Tool{
		Name:        GetTemplateName,
		Description: "Retrieves a template (e.g., handoff or summary) for a specific session ID and type from the Template Exchange API.",
		Parameters:  reflectParameters(&getTemplateArgs{}),
	}
}

// CreateTemplateTool returns the declaration for create_template.
func CreateTemplateTool() ckassist.Tool {
	return ckassist.Tool{
		Name:        CreateTemplateName,
		Description: "Creates a new template or updates an existing one in the Template Exchange API. Stores session handoffs or summaries.",
		Parameters:  reflectParameters(&createTemplateArgs{}),
	}
}

func getTemplateHandler(svc ckassist.TemplateService) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var a getTemplateArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		typ := ckassist.TemplateType(a.TemplateType)
		if typ == "" {
			typ = ckassist.DefaultTemplateType
		}
		t, err := svc.FetchTemplate(ctx, a.SessionID, typ)
		if err != nil {
			return nil, err
		}
		return t.Payload(), nil
	}
}

func createTemplateHandler(svc ckassist.TemplateService) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var a createTemplateArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		status := a.Status
		if status == "" {
			status = ckassist.DefaultTemplateStatus
		}
		t, err := svc.UpsertTemplate(ctx, ckassist.UpsertTemplateInput{
			SessionID: a.SessionID,
			Type:      ckassist.TemplateType(a.TemplateType),
			Content:   a.Content,
			Status:    status,
			Metadata:  a.Metadata,
		})
		if err != nil {
			return nil, err
		}
		return t.Payload(), nil
	}
}
