package ckassist_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/ckassist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_UnmarshalJSON(t *testing.T) {
	t.Parallel()
	body := `{"sessionId":"M5.S4","type":"summary","content":"Done.","status":"draft",` +
		`"metadata":{"tags":["x"]},"updatedAt":"2026-10-16T10:00:00Z"}`

	var tmpl ckassist.Template
	require.NoError(t, json.Unmarshal([]byte(body), &tmpl))

	assert.Equal(t, "M5.S4", tmpl.SessionID)
	assert.Equal(t, ckassist.TemplateSummary, tmpl.Type)
	assert.Equal(t, "Done.", tmpl.Content)
	assert.Equal(t, "draft", tmpl.Status)
	assert.Equal(t, map[string]any{"tags": []any{"x"}}, tmpl.Metadata)
	assert.Equal(t, "2026-10-16T10:00:00Z", tmpl.Record["updatedAt"])
}

func TestTemplate_Payload(t *testing.T) {
	t.Parallel()

	t.Run("uses decoded record", func(t *testing.T) {
		t.Parallel()
		tmpl := ckassist.Template{SessionID: "a", Record: map[string]any{"sessionId": "a", "id": float64(7)}}
		assert.Equal(t, map[string]any{"sessionId": "a", "id": float64(7)}, tmpl.Payload())
	})

	t.Run("builds from fields without record", func(t *testing.T) {
		t.Parallel()
		tmpl := ckassist.Template{SessionID: "a", Type: ckassist.TemplateHandoff, Content: "c", Status: "draft"}
		got := tmpl.Payload()
		assert.Equal(t, "handoff", got["type"])
		assert.NotContains(t, got, "metadata")
	})
}
