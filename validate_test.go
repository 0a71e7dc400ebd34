package ckassist_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/ckassist"
	"github.com/stretchr/testify/assert"
)

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	user := ckassist.UserMessage{Content: []ckassist.ContentBlock{ckassist.TextBlock{Text: "hi"}}}

	t.Run("valid defaults", func(t *testing.T) {
		t.Parallel()
		r := ckassist.Request{Messages: []ckassist.Message{user}}
		assert.NoError(t, r.Validate())
	})

	t.Run("no messages", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, ckassist.Request{}.Validate(), ckassist.ErrValidation)
	})

	t.Run("temperature out of range", func(t *testing.T) {
		t.Parallel()
		temp := 2.5
		r := ckassist.Request{Messages: []ckassist.Message{user}, Temperature: &temp}
		assert.ErrorIs(t, r.Validate(), ckassist.ErrValidation)
	})

	t.Run("negative max tokens", func(t *testing.T) {
		t.Parallel()
		r := ckassist.Request{Messages: []ckassist.Message{user}, MaxTokens: -1}
		assert.ErrorIs(t, r.Validate(), ckassist.ErrValidation)
	})

	t.Run("invalid message is reported with index", func(t *testing.T) {
		t.Parallel()
		r := ckassist.Request{Messages: []ckassist.Message{user, ckassist.ToolResultMessage{}}}
		err := r.Validate()
		assert.ErrorIs(t, err, ckassist.ErrValidation)
		assert.Contains(t, err.Error(), "message 1")
	})
}

func TestValidateMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		msg     ckassist.Message
		wantErr bool
	}{
		{"user text", ckassist.UserMessage{Content: []ckassist.ContentBlock{ckassist.TextBlock{Text: "x"}}}, false},
		{"user thinking", ckassist.UserMessage{Content: []ckassist.ContentBlock{ckassist.ThinkingBlock{}}}, true},
		{"user tool call", ckassist.UserMessage{Content: []ckassist.ContentBlock{ckassist.ToolCallBlock{Name: "get_template"}}}, true},
		{"assistant all blocks", ckassist.AssistantMessage{Content: []ckassist.ContentBlock{
			ckassist.ThinkingBlock{Thinking: "t"},
			ckassist.TextBlock{Text: "x"},
			ckassist.ToolCallBlock{ID: "1", Name: "get_template", Arguments: json.RawMessage(`{}`)},
		}}, false},
		{"assistant unnamed call", ckassist.AssistantMessage{Content: []ckassist.ContentBlock{ckassist.ToolCallBlock{ID: "1"}}}, true},
		{"tool result ok", ckassist.ToolResultMessage{ToolName: "get_template", Result: ckassist.ToolSuccess{}}, false},
		{"tool result without name", ckassist.ToolResultMessage{Result: ckassist.ToolSuccess{}}, true},
		{"tool result without result", ckassist.ToolResultMessage{ToolName: "get_template"}, true},
		{"empty user", ckassist.UserMessage{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ckassist.ValidateMessage(tt.msg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ckassist.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
