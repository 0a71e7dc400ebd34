package ckassist

import (
	"context"
	"encoding/json"
)

// Tool is the declaration sent to the model describing a callable operation.
// Declarations are built once at startup and never mutated.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolExecutor runs tool calls requested by the model. Execute never fails:
// every outcome, including unknown tools and internal errors, is reported as
// a ToolResult so the model can read and recover from it.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCallBlock) ToolResult
}

// ToolResult is a sealed interface for the outcome of a tool call.
type ToolResult interface {
	toolResult()
}

// ToolSuccess carries the structured value produced by a tool.
type ToolSuccess struct {
	Payload any
}

func (ToolSuccess) toolResult() {}

// ToolFailure carries a tool error in a form the model can consume.
type ToolFailure struct {
	Message string
	Kind    ErrorKind
}

func (ToolFailure) toolResult() {}

// Error implements error so failures can be logged and compared directly.
func (f ToolFailure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// Interface compliance checks.
var (
	_ ToolResult = ToolSuccess{}
	_ ToolResult = ToolFailure{}
	_ error      = ToolFailure{}
)

// ResponsePayload returns the structured form of r sent back to the model:
// {"result": payload} on success, {"error": message, "type": kind} on failure.
// A nil result is reported as a ClientExecutionError failure.
func ResponsePayload(r ToolResult) map[string]any {
	switch res := r.(type) {
	case ToolSuccess:
		return map[string]any{"result": res.Payload}
	case ToolFailure:
		return map[string]any{"error": res.Message, "type": string(res.Kind)}
	default:
		return map[string]any{
			"error": "tool produced no result",
			"type":  string(KindClientExecutionError),
		}
	}
}
