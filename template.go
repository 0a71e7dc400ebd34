package ckassist

import (
	"context"
	"encoding/json"
)

// TemplateType selects which document of a session is addressed.
type TemplateType string

const (
	TemplateHandoff TemplateType = "handoff"
	TemplateSummary TemplateType = "summary"
)

// Defaults applied when the caller leaves a field empty.
const (
	DefaultTemplateType   = TemplateHandoff
	DefaultTemplateStatus = "draft"
)

// Template is the record stored by the template service. The service owns it;
// the assistant never caches it.
type Template struct {
	SessionID string         `json:"sessionId"`
	Type      TemplateType   `json:"type"`
	Content   string         `json:"content"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// Record is the full decoded body, including fields the service adds
	// (identifiers, timestamps) that have no typed counterpart.
	Record map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps the full body in Record.
func (t *Template) UnmarshalJSON(data []byte) error {
	type plain Template
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	*t = Template(p)
	t.Record = record
	return nil
}

// Payload returns the structured value handed to the model for this record.
func (t *Template) Payload() map[string]any {
	if t.Record != nil {
		return t.Record
	}
	out := map[string]any{
		"sessionId": t.SessionID,
		"type":      string(t.Type),
		"content":   t.Content,
		"status":    t.Status,
	}
	if t.Metadata != nil {
		out["metadata"] = t.Metadata
	}
	return out
}

// UpsertTemplateInput is the write request for a template. A nil Metadata is
// not sent at all.
type UpsertTemplateInput struct {
	SessionID string
	Type      TemplateType
	Content   string
	Status    string
	Metadata  map[string]any
}

// TemplateService reads and writes templates on the remote template service.
//
// FetchTemplate returns ErrNotFound when the template does not exist.
// Both methods return ErrAuthenticationFailed when the key is rejected and a
// *RemoteError for any other unsuccessful response.
type TemplateService interface {
	FetchTemplate(ctx context.Context, sessionID string, templateType TemplateType) (*Template, error)
	UpsertTemplate(ctx context.Context, in UpsertTemplateInput) (*Template, error)
}
