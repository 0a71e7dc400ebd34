// Package agent runs the tool-calling conversation between a Provider and a
// ToolExecutor for a single prompt.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/ckassist"
	"github.com/google/uuid"
)

// DefaultMaxToolRounds bounds the tool round trips of one interaction.
const DefaultMaxToolRounds = 10

// FallbackAnswer is returned when the terminal turn carries no text.
const FallbackAnswer = "Model did not provide a final text response after handling potential function calls."

// Orchestrator owns the exchange with the model for one prompt at a time.
// It is not safe for concurrent use.
type Orchestrator struct {
	provider ckassist.Provider
	executor ckassist.ToolExecutor
	tools    []ckassist.Tool

	systemPrompt string
	model        string
	maxRounds    int
	onEvent      func(ckassist.Event)
	onState      func(from, to State)
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSystemPrompt sets the system prompt of every session.
func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) { o.systemPrompt = prompt }
}

// WithModel sets the model ID for provider requests.
// Empty string means the provider uses its default model.
func WithModel(model string) Option {
	return func(o *Orchestrator) { o.model = model }
}

// WithEventHandler sets a callback that receives each streaming event and
// every tool result. If nil or not set, events are silently discarded.
func WithEventHandler(h func(ckassist.Event)) Option {
	return func(o *Orchestrator) { o.onEvent = h }
}

// WithStateHandler sets a callback observing every state transition.
func WithStateHandler(h func(from, to State)) Option {
	return func(o *Orchestrator) { o.onState = h }
}

// WithMaxToolRounds sets how many tool round trips one interaction may make.
// Values below one are ignored.
func WithMaxToolRounds(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator that offers tools to the model and dispatches
// its calls through executor.
func New(provider ckassist.Provider, executor ckassist.ToolExecutor, tools []ckassist.Tool, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:  provider,
		executor:  executor,
		tools:     tools,
		maxRounds: DefaultMaxToolRounds,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond answers prompt in a fresh session. Tool failures are handed back to
// the model and never returned; provider failures wrap
// ckassist.ErrAgentCommunication and exceeding the round limit wraps
// ckassist.ErrToolLoopLimit.
func (o *Orchestrator) Respond(ctx context.Context, prompt string) (string, error) {
	now := time.Now()
	session := &ckassist.Session{
		ID:           uuid.NewString(),
		SystemPrompt: o.systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	session.Append(ckassist.UserMessage{
		Content:   []ckassist.ContentBlock{ckassist.TextBlock{Text: prompt}},
		Timestamp: now,
	})
	return o.Run(ctx, session)
}

// Run drives session from AwaitingAgentReply to Done, appending every
// assistant turn and tool result to it, and returns the final answer.
func (o *Orchestrator) Run(ctx context.Context, session *ckassist.Session) (string, error) {
	log := o.logger.With("session", session.ID)
	state := AwaitingAgentReply
	rounds := 0
	var calls []ckassist.ToolCallBlock

	for {
		switch state {
		case AwaitingAgentReply:
			msg, err := o.reply(ctx, session)
			if err != nil {
				return "", err
			}
			// Calls in a refused turn are never executed.
			if msg.StopReason == ckassist.StopError {
				return "", fmt.Errorf("%w: model stopped with %q", ckassist.ErrAgentCommunication, msg.RawStopReason)
			}
			switch turn := ckassist.ClassifyTurn(msg).(type) {
			case ckassist.ToolCallTurn:
				if rounds >= o.maxRounds {
					return "", fmt.Errorf("agent: model still calling tools after %d rounds: %w", rounds, ckassist.ErrToolLoopLimit)
				}
				calls = turn.Calls
				state = o.transition(state, HandlingToolCall)
			case ckassist.TextTurn:
				state = o.transition(state, Done)
				if turn.Text == "" {
					log.Warn("model returned no final text")
					return FallbackAnswer, nil
				}
				return turn.Text, nil
			}

		case HandlingToolCall:
			rounds++
			log.Debug("tool round", "round", rounds, "calls", len(calls))
			for _, call := range calls {
				o.dispatch(ctx, session, call)
			}
			state = o.transition(state, AwaitingAgentReply)
		}
	}
}

// reply requests the next assistant turn and appends it to session.
func (o *Orchestrator) reply(ctx context.Context, session *ckassist.Session) (ckassist.AssistantMessage, error) {
	if err := ctx.Err(); err != nil {
		return ckassist.AssistantMessage{}, fmt.Errorf("%w: %w", ckassist.ErrAgentCommunication, err)
	}

	req := ckassist.Request{
		Model:        o.model,
		SystemPrompt: session.SystemPrompt,
		Messages:     session.Messages,
		Tools:        o.tools,
	}

	stream, err := o.provider.Stream(ctx, req)
	if err != nil {
		return ckassist.AssistantMessage{}, fmt.Errorf("%w: %w", ckassist.ErrAgentCommunication, err)
	}
	defer stream.Close()

	var streamErr error
	for {
		evt, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}
		o.emit(evt)
	}

	msg, msgErr := stream.Message()
	if msgErr != nil {
		if streamErr != nil {
			msgErr = streamErr
		}
		return ckassist.AssistantMessage{}, fmt.Errorf("%w: %w", ckassist.ErrAgentCommunication, msgErr)
	}

	// A partial reply is kept so the session shows what the model produced.
	session.Append(msg)

	if streamErr != nil {
		return ckassist.AssistantMessage{}, fmt.Errorf("%w: %w", ckassist.ErrAgentCommunication, streamErr)
	}
	return msg, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, session *ckassist.Session, call ckassist.ToolCallBlock) {
	result := o.executor.Execute(ctx, call)
	if result == nil {
		result = ckassist.ToolFailure{
			Message: fmt.Sprintf("Unexpected error calling %s: no result", call.Name),
			Kind:    ckassist.KindClientExecutionError,
		}
	}
	session.Append(ckassist.ToolResultMessage{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Result:     result,
		Timestamp:  time.Now(),
	})
	o.emit(ckassist.EventToolResult{ID: call.ID, ToolName: call.Name, Result: result})
}

func (o *Orchestrator) emit(evt ckassist.Event) {
	if o.onEvent != nil {
		o.onEvent(evt)
	}
}

func (o *Orchestrator) transition(from, to State) State {
	o.logger.Debug("state", "from", from, "to", to)
	if o.onState != nil {
		o.onState(from, to)
	}
	return to
}
