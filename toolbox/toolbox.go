// Package toolbox is the catalogue of tools the assistant may call.
//
// Each tool is an entry in a dispatch table keyed by name: the declaration
// sent to the model, a compiled validator for its arguments, and the handler
// bound to the template service. [Registry.Execute] always yields a
// [ckassist.ToolResult]; no failure escapes it.
package toolbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/ckassist"
	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
)

// Interface compliance check.
var _ ckassist.ToolExecutor = (*Registry)(nil)

// HandlerFunc runs a tool with arguments that already passed schema
// validation and returns the payload handed back to the model.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

type entry struct {
	tool   ckassist.Tool
	schema *santhosh.Schema
	handle HandlerFunc
}

// Registry holds the tool entries. It is read-only once construction returns.
type Registry struct {
	entries map[string]entry
	order   []string
	logger  *slog.Logger
}

// Option configures a [Registry].
type Option func(*Registry)

// WithLogger sets the logger used to trace tool dispatch.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New returns a registry exposing get_template and create_template bound to svc.
func New(svc ckassist.TemplateService, opts ...Option) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]entry),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(r)
	}
	for _, t := range templateTools(svc) {
		if err := r.register(t.tool, t.handle); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(tool ckassist.Tool, handle HandlerFunc) error {
	if _, dup := r.entries[tool.Name]; dup {
		return fmt.Errorf("toolbox: duplicate tool %q", tool.Name)
	}
	schema, err := compileSchema(tool.Name, tool.Parameters)
	if err != nil {
		return fmt.Errorf("toolbox: %s: %w", tool.Name, err)
	}
	r.entries[tool.Name] = entry{tool: tool, schema: schema, handle: handle}
	r.order = append(r.order, tool.Name)
	return nil
}

// Tools returns the declarations in registration order.
func (r *Registry) Tools() []ckassist.Tool {
	tools := make([]ckassist.Tool, len(r.order))
	for i, name := range r.order {
		tools[i] = r.entries[name].tool
	}
	return tools
}

// Execute dispatches call to its entry. Unknown names fail with
// KindUnknownTool without touching the service. Service failures keep their
// kind; anything else, panics included, becomes KindClientExecutionError.
func (r *Registry) Execute(ctx context.Context, call ckassist.ToolCallBlock) (result ckassist.ToolResult) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			result = ckassist.ToolFailure{
				Message: fmt.Sprintf("Unexpected error calling %s: %v", call.Name, p),
				Kind:    ckassist.KindClientExecutionError,
			}
		}
		r.trace(call, result, time.Since(start))
	}()

	e, ok := r.entries[call.Name]
	if !ok {
		return ckassist.ToolFailure{
			Message: fmt.Sprintf("Function %s is not implemented or recognized.", call.Name),
			Kind:    ckassist.KindUnknownTool,
		}
	}

	args := normalizeArgs(call.Arguments)
	if err := validateArgs(e.schema, args); err != nil {
		return ckassist.ToolFailure{
			Message: fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err),
			Kind:    ckassist.KindClientExecutionError,
		}
	}

	payload, err := e.handle(ctx, args)
	if err != nil {
		return failureFrom(call.Name, err)
	}
	return ckassist.ToolSuccess{Payload: payload}
}

func failureFrom(name string, err error) ckassist.ToolFailure {
	kind := ckassist.KindOf(err)
	if kind == ckassist.KindClientExecutionError {
		return ckassist.ToolFailure{
			Message: fmt.Sprintf("Unexpected error calling %s: %v", name, err),
			Kind:    kind,
		}
	}
	return ckassist.ToolFailure{Message: err.Error(), Kind: kind}
}

func (r *Registry) trace(call ckassist.ToolCallBlock, result ckassist.ToolResult, dur time.Duration) {
	if f, ok := result.(ckassist.ToolFailure); ok {
		r.logger.Warn("tool failed", "tool", call.Name, "id", call.ID, "kind", f.Kind, "duration", dur, "error", f.Message)
		return
	}
	r.logger.Info("tool end", "tool", call.Name, "id", call.ID, "duration", dur)
}

// normalizeArgs maps absent or null arguments to an empty object and drops
// top-level null fields, which the model uses to mean "not provided".
func normalizeArgs(args json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(args)) == 0 || isNull(args) {
		return json.RawMessage(`{}`)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		// Left for validation to report.
		return args
	}
	changed := false
	for k, v := range fields {
		if isNull(v) {
			delete(fields, k)
			changed = true
		}
	}
	if !changed {
		return args
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return args
	}
	return out
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
