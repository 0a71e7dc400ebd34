package agent

// State is a stage of the prompt-to-answer state machine.
type State int

const (
	// AwaitingAgentReply waits for the model's next turn.
	AwaitingAgentReply State = iota
	// HandlingToolCall dispatches the tool calls of the latest turn.
	HandlingToolCall
	// Done is terminal: the latest turn carried no tool call request.
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingAgentReply:
		return "AwaitingAgentReply"
	case HandlingToolCall:
		return "HandlingToolCall"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}
