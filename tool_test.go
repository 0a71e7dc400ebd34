package ckassist_test

import (
	"testing"

	"github.com/fwojciec/ckassist"
	"github.com/stretchr/testify/assert"
)

func TestResponsePayload(t *testing.T) {
	t.Parallel()

	t.Run("success wraps payload in result", func(t *testing.T) {
		t.Parallel()
		payload := map[string]any{"sessionId": "M5.S4", "content": "Done."}
		got := ckassist.ResponsePayload(ckassist.ToolSuccess{Payload: payload})
		assert.Equal(t, map[string]any{"result": payload}, got)
	})

	t.Run("failure carries message and kind", func(t *testing.T) {
		t.Parallel()
		got := ckassist.ResponsePayload(ckassist.ToolFailure{
			Message: "No handoff template found for session M5.S4",
			Kind:    ckassist.KindNotFound,
		})
		assert.Equal(t, map[string]any{
			"error": "No handoff template found for session M5.S4",
			"type":  "NotFound",
		}, got)
	})

	t.Run("nil result is a client execution error", func(t *testing.T) {
		t.Parallel()
		got := ckassist.ResponsePayload(nil)
		assert.Equal(t, "ClientExecutionError", got["type"])
	})
}

func TestToolFailure_Error(t *testing.T) {
	t.Parallel()
	f := ckassist.ToolFailure{Message: "no such tool: delete_template", Kind: ckassist.KindUnknownTool}
	assert.EqualError(t, f, "UnknownTool: no such tool: delete_template")
	assert.Equal(t, ckassist.KindUnknownTool, ckassist.KindOf(f))
}
