package ckassist

// Event is a sealed interface representing an event observed during an
// interaction. Stream events are purely semantic; transport errors come from
// Stream.Next()'s error return.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta represents a text content delta.
type EventTextDelta struct {
	Index int
	Delta string
}

func (EventTextDelta) event() {}

// EventThinkingDelta represents a thinking content delta.
type EventThinkingDelta struct {
	Index int
	Delta string
}

func (EventThinkingDelta) event() {}

// EventToolCallBegin signals the start of a tool call.
type EventToolCallBegin struct {
	ID   string
	Name string
}

func (EventToolCallBegin) event() {}

// EventToolCallEnd signals the completion of a tool call with the assembled block.
type EventToolCallEnd struct {
	Call ToolCallBlock
}

func (EventToolCallEnd) event() {}

// EventToolResult is emitted by the orchestrator after a tool call was dispatched.
type EventToolResult struct {
	ID       string
	ToolName string
	Result   ToolResult
}

func (EventToolResult) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventThinkingDelta{}
	_ Event = EventToolCallBegin{}
	_ Event = EventToolCallEnd{}
	_ Event = EventToolResult{}
)
