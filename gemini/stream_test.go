package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"testing"

	"github.com/fwojciec/ckassist"
	"github.com/fwojciec/ckassist/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// seq returns a genai-style streaming iterator over pre-built chunks.
func seq(chunks ...*genai.GenerateContentResponse) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// chunk builds a single-candidate response from parts.
func chunk(finish genai.FinishReason, parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: parts},
			FinishReason: finish,
		}},
	}
}

func withUsage(r *genai.GenerateContentResponse, prompt, candidates int32) *genai.GenerateContentResponse {
	r.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     prompt,
		CandidatesTokenCount: candidates,
	}
	return r
}

func text(s string) *genai.Part    { return &genai.Part{Text: s} }
func thought(s string) *genai.Part { return &genai.Part{Text: s, Thought: true} }

func call(id, name string, args map[string]any) *genai.Part {
	return &genai.Part{FunctionCall: &genai.FunctionCall{ID: id, Name: name, Args: args}}
}

func drain(t *testing.T, s ckassist.Stream) []ckassist.Event {
	t.Helper()
	var events []ckassist.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events
}

func TestStream_TextDeltas(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), seq(
		withUsage(chunk("", text("Template ")), 12, 2),
		withUsage(chunk(genai.FinishReasonStop, text("saved.")), 12, 4),
	))

	events := drain(t, s)
	assert.Equal(t, []ckassist.Event{
		ckassist.EventTextDelta{Index: 0, Delta: "Template "},
		ckassist.EventTextDelta{Index: 0, Delta: "saved."},
	}, events)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, []ckassist.ContentBlock{ckassist.TextBlock{Text: "Template saved."}}, msg.Content)
	assert.Equal(t, ckassist.StopEndTurn, msg.StopReason)
	assert.Equal(t, ckassist.Usage{InputTokens: 12, OutputTokens: 4}, msg.Usage)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestStream_ThinkingThenText(t *testing.T) {
	t.Parallel()
	sig := &genai.Part{Text: " more", Thought: true, ThoughtSignature: []byte("sig")}
	s := gemini.NewStreamFromIter(context.Background(), seq(
		chunk("", thought("checking")),
		chunk("", sig),
		chunk(genai.FinishReasonStop, text("Done")),
	))

	events := drain(t, s)
	assert.Equal(t, []ckassist.Event{
		ckassist.EventThinkingDelta{Index: 0, Delta: "checking"},
		ckassist.EventThinkingDelta{Index: 0, Delta: " more"},
		ckassist.EventTextDelta{Index: 1, Delta: "Done"},
	}, events)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, []ckassist.ContentBlock{
		ckassist.ThinkingBlock{Thinking: "checking more", Signature: []byte("sig")},
		ckassist.TextBlock{Text: "Done"},
	}, msg.Content)
}

func TestStream_InterleavedBlocksStaySeparate(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), seq(
		chunk("", thought("a")),
		chunk("", text("b")),
		chunk(genai.FinishReasonStop, thought("c")),
	))
	drain(t, s)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, []ckassist.ContentBlock{
		ckassist.ThinkingBlock{Thinking: "a"},
		ckassist.TextBlock{Text: "b"},
		ckassist.ThinkingBlock{Thinking: "c"},
	}, msg.Content)
}

func TestStream_SignatureOnlyPartEmitsNothing(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), seq(
		chunk("", thought("plan")),
		chunk("", &genai.Part{Thought: true, ThoughtSignature: []byte("late")}),
		chunk(genai.FinishReasonStop, text("ok")),
	))

	events := drain(t, s)
	require.Len(t, events, 2)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, ckassist.ThinkingBlock{Thinking: "plan", Signature: []byte("late")}, msg.Content[0])
}

func TestStream_ToolCall(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), seq(
		chunk(genai.FinishReasonStop, call("fc_1", "get_template", map[string]any{"session_id": "M5.S4"})),
	))

	events := drain(t, s)
	require.Len(t, events, 2)
	assert.Equal(t, ckassist.EventToolCallBegin{ID: "fc_1", Name: "get_template"}, events[0])
	end, ok := events[1].(ckassist.EventToolCallEnd)
	require.True(t, ok)
	assert.JSONEq(t, `{"session_id":"M5.S4"}`, string(end.Call.Arguments))

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, ckassist.StopToolUse, msg.StopReason)
	assert.Equal(t, "STOP", msg.RawStopReason)
	require.Len(t, msg.ToolCalls(), 1)
}

func TestStream_ToolCallWithoutIDGetsOne(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), seq(
		chunk(genai.FinishReasonStop,
			call("", "get_template", map[string]any{"session_id": "A"}),
			call("", "get_template", map[string]any{"session_id": "B"}),
		),
	))
	drain(t, s)

	msg, err := s.Message()
	require.NoError(t, err)
	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	assert.Regexp(t, `^call_[0-9a-f-]{36}$`, calls[0].ID)
	assert.NotEqual(t, calls[0].ID, calls[1].ID)
}

func TestStream_ToolCallNilArgs(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), seq(
		chunk(genai.FinishReasonStop, call("fc_1", "get_template", nil)),
	))
	drain(t, s)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{}`), msg.ToolCalls()[0].Arguments)
}

func TestStream_CallSignature(t *testing.T) {
	t.Parallel()

	t.Run("backfills preceding thinking", func(t *testing.T) {
		t.Parallel()
		p := call("fc_1", "create_template", map[string]any{"content": "x"})
		p.ThoughtSignature = []byte("sig")
		s := gemini.NewStreamFromIter(context.Background(), seq(
			chunk(genai.FinishReasonStop, thought("write it"), p),
		))
		drain(t, s)

		msg, err := s.Message()
		require.NoError(t, err)
		require.Len(t, msg.Content, 2)
		assert.Equal(t, ckassist.ThinkingBlock{Thinking: "write it", Signature: []byte("sig")}, msg.Content[0])
		assert.Nil(t, msg.Content[1].(ckassist.ToolCallBlock).Signature)
	})

	t.Run("kept on call without thinking", func(t *testing.T) {
		t.Parallel()
		p := call("fc_1", "create_template", map[string]any{"content": "x"})
		p.ThoughtSignature = []byte("sig")
		s := gemini.NewStreamFromIter(context.Background(), seq(chunk(genai.FinishReasonStop, p)))
		drain(t, s)

		msg, err := s.Message()
		require.NoError(t, err)
		assert.Equal(t, []byte("sig"), msg.ToolCalls()[0].Signature)
	})
}

func TestStream_StopReasons(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		finish genai.FinishReason
		parts  []*genai.Part
		want   ckassist.StopReason
		raw    string
	}{
		{"stop", genai.FinishReasonStop, []*genai.Part{text("a")}, ckassist.StopEndTurn, "STOP"},
		{"absent", "", []*genai.Part{text("a")}, ckassist.StopEndTurn, "end_turn"},
		{"max tokens", genai.FinishReasonMaxTokens, []*genai.Part{text("a")}, ckassist.StopLength, "MAX_TOKENS"},
		{"safety keeps error with call", genai.FinishReasonSafety, []*genai.Part{call("c", "get_template", nil)}, ckassist.StopError, "SAFETY"},
		{"other", genai.FinishReasonOther, []*genai.Part{text("a")}, ckassist.StopUnknown, "OTHER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := gemini.NewStreamFromIter(context.Background(), seq(chunk(tt.finish, tt.parts...)))
			drain(t, s)
			msg, err := s.Message()
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.StopReason)
			assert.Equal(t, tt.raw, msg.RawStopReason)
		})
	}
}

func TestStream_Usage(t *testing.T) {
	t.Parallel()

	t.Run("cached tokens split from input", func(t *testing.T) {
		t.Parallel()
		r := chunk(genai.FinishReasonStop, text("hi"))
		r.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:        210,
			CandidatesTokenCount:    5,
			ThoughtsTokenCount:      7,
			CachedContentTokenCount: 200,
		}
		s := gemini.NewStreamFromIter(context.Background(), seq(r))
		drain(t, s)
		msg, err := s.Message()
		require.NoError(t, err)
		assert.Equal(t, ckassist.Usage{InputTokens: 10, OutputTokens: 12, CacheReadTokens: 200}, msg.Usage)
	})

	t.Run("clamps negative input", func(t *testing.T) {
		t.Parallel()
		r := chunk(genai.FinishReasonStop, text("hi"))
		r.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:        5,
			CachedContentTokenCount: 100,
		}
		s := gemini.NewStreamFromIter(context.Background(), seq(r))
		drain(t, s)
		msg, err := s.Message()
		require.NoError(t, err)
		assert.Equal(t, 0, msg.Usage.InputTokens)
	})
}

func TestStream_SkipsEmptyChunks(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, r := range []*genai.GenerateContentResponse{
			chunk("", text("a")), nil, {}, chunk(genai.FinishReasonStop, text("b")),
		} {
			if !yield(r, nil) {
				return
			}
		}
	})

	events := drain(t, s)
	assert.Len(t, events, 2)
	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, []ckassist.ContentBlock{ckassist.TextBlock{Text: "ab"}}, msg.Content)
}

func TestStream_Failures(t *testing.T) {
	t.Parallel()

	t.Run("iterator error", func(t *testing.T) {
		t.Parallel()
		s := gemini.NewStreamFromIter(context.Background(), func(yield func(*genai.GenerateContentResponse, error) bool) {
			yield(nil, assert.AnError)
		})
		_, err := s.Next()
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "gemini:")
		assert.Equal(t, ckassist.StreamStateError, s.State())

		_, again := s.Next()
		assert.Equal(t, err, again)
		msg, _ := s.Message()
		assert.Equal(t, ckassist.StopError, msg.StopReason)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := gemini.NewStreamFromIter(ctx, seq())
		_, err := s.Next()
		require.ErrorIs(t, err, context.Canceled)
		msg, _ := s.Message()
		assert.Equal(t, ckassist.StopAborted, msg.StopReason)
	})

	t.Run("prompt blocked", func(t *testing.T) {
		t.Parallel()
		s := gemini.NewStreamFromIter(context.Background(), seq(&genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}))
		_, err := s.Next()
		require.ErrorContains(t, err, "prompt blocked")
		msg, _ := s.Message()
		assert.Equal(t, ckassist.StopError, msg.StopReason)
		assert.Equal(t, "SAFETY", msg.RawStopReason)
	})

	t.Run("unencodable arguments", func(t *testing.T) {
		t.Parallel()
		s := gemini.NewStreamFromIter(context.Background(), seq(
			chunk(genai.FinishReasonStop, call("c", "create_template", map[string]any{"v": math.NaN()})),
		))
		_, err := s.Next()
		require.ErrorContains(t, err, "invalid tool call arguments")
		assert.Equal(t, ckassist.StreamStateError, s.State())
	})
}

func TestStream_Lifecycle(t *testing.T) {
	t.Parallel()

	two := func() ckassist.Stream {
		return gemini.NewStreamFromIter(context.Background(), seq(
			chunk("", text("a")),
			chunk(genai.FinishReasonStop, text("b")),
		))
	}

	t.Run("message before next", func(t *testing.T) {
		t.Parallel()
		s := two()
		assert.Equal(t, ckassist.StreamStateNew, s.State())
		_, err := s.Message()
		assert.ErrorIs(t, err, ckassist.ErrStreamNotReady)
	})

	t.Run("streaming then complete", func(t *testing.T) {
		t.Parallel()
		s := two()
		_, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, ckassist.StreamStateStreaming, s.State())
		drain(t, s)
		assert.Equal(t, ckassist.StreamStateComplete, s.State())
		_, err = s.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("close mid-stream aborts", func(t *testing.T) {
		t.Parallel()
		s := two()
		_, err := s.Next()
		require.NoError(t, err)
		require.NoError(t, s.Close())
		assert.Equal(t, ckassist.StreamStateClosed, s.State())
		msg, err := s.Message()
		require.NoError(t, err)
		assert.Equal(t, ckassist.StopAborted, msg.StopReason)
		_, err = s.Next()
		assert.ErrorIs(t, err, gemini.ErrStreamClosed)
	})

	t.Run("close after completion keeps result", func(t *testing.T) {
		t.Parallel()
		s := two()
		drain(t, s)
		require.NoError(t, s.Close())
		assert.Equal(t, ckassist.StreamStateComplete, s.State())
		msg, err := s.Message()
		require.NoError(t, err)
		assert.Equal(t, ckassist.StopEndTurn, msg.StopReason)
	})
}
