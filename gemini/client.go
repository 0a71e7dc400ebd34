package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fwojciec/ckassist"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ ckassist.Provider = (*Client)(nil)

// Client implements [ckassist.Provider] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

type settings struct {
	model      string
	httpClient *http.Client
	baseURL    string
}

// Option configures a [Client].
type Option func(*settings)

// WithModel sets the model ID. Default is gemini-2.5-pro.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	s := settings{model: defaultModel}
	for _, o := range opts {
		o(&s)
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Client{client: gc, model: s.model}, nil
}

// Model returns the default model ID used when a request names none.
func (c *Client) Model() string {
	return c.model
}

// Stream sends a streaming request to the Gemini API and returns a
// [ckassist.Stream] that emits semantic events.
func (c *Client) Stream(ctx context.Context, req ckassist.Request) (ckassist.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := ConvertMessages(req.Messages)
	config := buildConfig(req)

	seq := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return NewStreamFromIter(ctx, seq), nil
}

func buildConfig(req ckassist.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           ConvertTools(req.Tools),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
		},
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertMessages converts ckassist Messages to genai Contents.
// Consecutive tool results are answered together in one user turn, one
// FunctionResponse part per call, as Gemini expects after a parallel call.
// Exported for testing.
func ConvertMessages(msgs []ckassist.Message) []*genai.Content {
	var result []*genai.Content
	var pending *genai.Content // open tool-response turn
	for _, msg := range msgs {
		switch m := msg.(type) {
		case ckassist.UserMessage:
			pending = nil
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: convertParts(m.Content),
			})
		case ckassist.AssistantMessage:
			pending = nil
			result = append(result, &genai.Content{
				Role:  "model",
				Parts: convertParts(m.Content),
			})
		case ckassist.ToolResultMessage:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     m.ToolName,
					Response: ckassist.ResponsePayload(m.Result),
				},
			}
			if pending != nil {
				pending.Parts = append(pending.Parts, part)
				continue
			}
			pending = &genai.Content{Role: "user", Parts: []*genai.Part{part}}
			result = append(result, pending)
		}
	}
	return result
}

func convertParts(blocks []ckassist.ContentBlock) []*genai.Part {
	var parts []*genai.Part
	for _, b := range blocks {
		switch bl := b.(type) {
		case ckassist.TextBlock:
			parts = append(parts, &genai.Part{Text: bl.Text})
		case ckassist.ThinkingBlock:
			p := &genai.Part{Text: bl.Thinking, Thought: true}
			if bl.Signature != nil {
				p.ThoughtSignature = bl.Signature
			}
			parts = append(parts, p)
		case ckassist.ToolCallBlock:
			// Arguments is json.RawMessage, always valid JSON from domain types.
			var args map[string]any
			_ = json.Unmarshal(bl.Arguments, &args)
			p := &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   bl.ID,
					Name: bl.Name,
					Args: args,
				},
			}
			if bl.Signature != nil {
				p.ThoughtSignature = bl.Signature
			}
			parts = append(parts, p)
		}
	}
	return parts
}

// ConvertTools converts ckassist Tools to genai Tools.
// Exported for testing.
func ConvertTools(tools []ckassist.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		// Parameters is json.RawMessage, always valid JSON from domain types.
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schema,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
