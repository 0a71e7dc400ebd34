package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/fwojciec/ckassist"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = ckassist.ErrStreamClosed

// stream implements [ckassist.Stream] by wrapping the genai SDK's streaming
// iterator. One response chunk may carry several parts; the events they
// produce are queued and handed out one per Next call.
type stream struct {
	ctx     context.Context
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	state   ckassist.StreamState
	msg     ckassist.AssistantMessage
	err     error
	queue   []ckassist.Event
	finish  genai.FinishReason
	toolUse bool
}

// Interface compliance check.
var _ ckassist.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai response iterator. Exported for testing.
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) ckassist.Stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: ckassist.StreamStateNew,
	}
}

func (s *stream) Next() (ckassist.Event, error) {
	switch s.state {
	case ckassist.StreamStateComplete:
		return nil, io.EOF
	case ckassist.StreamStateError:
		return nil, s.err
	case ckassist.StreamStateClosed:
		return nil, ErrStreamClosed
	}
	for {
		if len(s.queue) > 0 {
			evt := s.queue[0]
			s.queue = s.queue[1:]
			s.state = ckassist.StreamStateStreaming
			return evt, nil
		}
		if err := s.ctx.Err(); err != nil {
			return nil, s.fail(err, ckassist.StopAborted, "aborted")
		}
		resp, err, ok := s.pull()
		if !ok {
			s.finalize()
			s.state = ckassist.StreamStateComplete
			return nil, io.EOF
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, s.fail(err, ckassist.StopAborted, "aborted")
			}
			return nil, s.fail(err, ckassist.StopError, "error")
		}
		if resp == nil {
			continue
		}
		if err := s.process(resp); err != nil {
			return nil, err
		}
	}
}

func (s *stream) fail(err error, reason ckassist.StopReason, raw string) error {
	s.state = ckassist.StreamStateError
	s.err = fmt.Errorf("gemini: %w", err)
	s.msg.StopReason = reason
	s.msg.RawStopReason = raw
	s.stampTime()
	return s.err
}

func (s *stream) process(resp *genai.GenerateContentResponse) error {
	if resp.UsageMetadata != nil {
		s.msg.Usage = convertUsage(resp.UsageMetadata)
	}
	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return s.fail(fmt.Errorf("prompt blocked: %s", fb.BlockReason), ckassist.StopError, string(fb.BlockReason))
		}
		return nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != "" {
		s.finish = cand.FinishReason
	}
	if cand.Content == nil {
		return nil
	}
	for _, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		if err := s.processPart(part); err != nil {
			return err
		}
	}
	return nil
}

func (s *stream) processPart(part *genai.Part) error {
	switch {
	case part.FunctionCall != nil:
		return s.processCall(part)
	case part.Thought:
		idx := s.openBlock(func(b ckassist.ContentBlock) bool {
			_, ok := b.(ckassist.ThinkingBlock)
			return ok
		}, ckassist.ThinkingBlock{})
		tb := s.msg.Content[idx].(ckassist.ThinkingBlock)
		tb.Thinking += part.Text
		if part.ThoughtSignature != nil {
			tb.Signature = part.ThoughtSignature
		}
		s.msg.Content[idx] = tb
		if part.Text != "" {
			s.queue = append(s.queue, ckassist.EventThinkingDelta{Index: idx, Delta: part.Text})
		}
	case part.Text != "":
		idx := s.openBlock(func(b ckassist.ContentBlock) bool {
			_, ok := b.(ckassist.TextBlock)
			return ok
		}, ckassist.TextBlock{})
		tb := s.msg.Content[idx].(ckassist.TextBlock)
		tb.Text += part.Text
		s.msg.Content[idx] = tb
		s.queue = append(s.queue, ckassist.EventTextDelta{Index: idx, Delta: part.Text})
	}
	return nil
}

// openBlock returns the index of the last block when same reports it can be
// extended, otherwise appends fresh and returns its index.
func (s *stream) openBlock(same func(ckassist.ContentBlock) bool, fresh ckassist.ContentBlock) int {
	if n := len(s.msg.Content); n > 0 && same(s.msg.Content[n-1]) {
		return n - 1
	}
	s.msg.Content = append(s.msg.Content, fresh)
	return len(s.msg.Content) - 1
}

func (s *stream) processCall(part *genai.Part) error {
	fc := part.FunctionCall
	args := json.RawMessage(`{}`)
	if fc.Args != nil {
		data, err := json.Marshal(fc.Args)
		if err != nil {
			return s.fail(fmt.Errorf("invalid tool call arguments for %s: %w", fc.Name, err), ckassist.StopError, "error")
		}
		args = data
	}
	id := fc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	call := ckassist.ToolCallBlock{ID: id, Name: fc.Name, Arguments: args}
	if part.ThoughtSignature != nil {
		// The signature belongs to the reasoning that led to the call. Attach
		// it to that block when it has none, otherwise keep it on the call.
		if n := len(s.msg.Content); n > 0 {
			if tb, ok := s.msg.Content[n-1].(ckassist.ThinkingBlock); ok && tb.Signature == nil {
				tb.Signature = part.ThoughtSignature
				s.msg.Content[n-1] = tb
			} else {
				call.Signature = part.ThoughtSignature
			}
		} else {
			call.Signature = part.ThoughtSignature
		}
	}
	s.msg.Content = append(s.msg.Content, call)
	s.toolUse = true
	s.queue = append(s.queue,
		ckassist.EventToolCallBegin{ID: id, Name: fc.Name},
		ckassist.EventToolCallEnd{Call: call},
	)
	return nil
}

func (s *stream) finalize() {
	reason, raw := mapFinishReason(s.finish)
	if s.toolUse && reason == ckassist.StopEndTurn {
		reason = ckassist.StopToolUse
	}
	s.msg.StopReason = reason
	s.msg.RawStopReason = raw
	s.stampTime()
}

func (s *stream) stampTime() {
	if s.msg.Timestamp.IsZero() {
		s.msg.Timestamp = time.Now()
	}
}

func mapFinishReason(fr genai.FinishReason) (ckassist.StopReason, string) {
	switch fr {
	case "", genai.FinishReasonUnspecified:
		return ckassist.StopEndTurn, string(ckassist.StopEndTurn)
	case genai.FinishReasonStop:
		return ckassist.StopEndTurn, string(fr)
	case genai.FinishReasonMaxTokens:
		return ckassist.StopLength, string(fr)
	case genai.FinishReasonSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII,
		genai.FinishReasonMalformedFunctionCall:
		return ckassist.StopError, string(fr)
	default:
		return ckassist.StopUnknown, string(fr)
	}
}

func convertUsage(u *genai.GenerateContentResponseUsageMetadata) ckassist.Usage {
	cached := int(u.CachedContentTokenCount)
	return ckassist.Usage{
		InputTokens:     max(int(u.PromptTokenCount)-cached, 0),
		OutputTokens:    int(u.CandidatesTokenCount) + int(u.ThoughtsTokenCount),
		CacheReadTokens: cached,
	}
}

func (s *stream) State() ckassist.StreamState {
	return s.state
}

func (s *stream) Message() (ckassist.AssistantMessage, error) {
	if s.state == ckassist.StreamStateNew {
		return ckassist.AssistantMessage{}, fmt.Errorf("gemini: %w", ckassist.ErrStreamNotReady)
	}
	return s.msg, nil
}

func (s *stream) Close() error {
	if s.state != ckassist.StreamStateComplete && s.state != ckassist.StreamStateError {
		s.state = ckassist.StreamStateClosed
		s.msg.StopReason = ckassist.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	s.stop()
	return nil
}
