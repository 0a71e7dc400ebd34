package ckassist

// Turn is a sealed interface classifying an assistant reply. A reply either
// asks for tools to be run or is the final answer; ClassifyTurn decides which.
type Turn interface {
	turn()
}

// TextTurn is a reply with no tool call request. Text may be empty.
type TextTurn struct {
	Text string
}

func (TextTurn) turn() {}

// ToolCallTurn is a reply requesting one or more tool calls. Text holds any
// prose the model produced alongside the calls.
type ToolCallTurn struct {
	Calls []ToolCallBlock
	Text  string
}

func (ToolCallTurn) turn() {}

// Interface compliance checks.
var (
	_ Turn = TextTurn{}
	_ Turn = ToolCallTurn{}
)

// ClassifyTurn maps an assistant message to its Turn variant.
func ClassifyTurn(msg AssistantMessage) Turn {
	if calls := msg.ToolCalls(); len(calls) > 0 {
		return ToolCallTurn{Calls: calls, Text: msg.Text()}
	}
	return TextTurn{Text: msg.Text()}
}
