// Package ckassist holds the domain types shared by the CK assistant: the
// conversation messages exchanged with the model, the tool declarations and
// results, the remote template record, and the error taxonomy.
package ckassist

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is a sealed interface representing a conversation message.
// The unexported marker method prevents external implementations.
// Role() returns the message's role without requiring a type switch.
type Message interface {
	isMessage()
	Role() Role
}

// UserMessage represents a message from the user.
type UserMessage struct {
	Content   []ContentBlock
	Timestamp time.Time
}

func (UserMessage) isMessage() {}

// Role returns RoleUser.
func (UserMessage) Role() Role { return RoleUser }

// AssistantMessage represents a message from the assistant.
type AssistantMessage struct {
	Content       []ContentBlock
	StopReason    StopReason
	RawStopReason string
	Usage         Usage
	Timestamp     time.Time
}

func (AssistantMessage) isMessage() {}

// Role returns RoleAssistant.
func (AssistantMessage) Role() Role { return RoleAssistant }

// Text concatenates the message's text blocks in order. Thinking blocks are
// not part of the answer and are skipped.
func (m AssistantMessage) Text() string {
	var sb strings.Builder
	for _, b := range m.Content {
		if tb, ok := b.(TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String()
}

// ToolCalls returns the tool call blocks in the order the model produced them.
func (m AssistantMessage) ToolCalls() []ToolCallBlock {
	var calls []ToolCallBlock
	for _, b := range m.Content {
		if tc, ok := b.(ToolCallBlock); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// ToolResultMessage carries the result of one tool call back to the model.
// It is keyed by the originating tool name and call ID.
type ToolResultMessage struct {
	ToolCallID string
	ToolName   string
	Result     ToolResult
	Timestamp  time.Time
}

func (ToolResultMessage) isMessage() {}

// Role returns RoleToolResult.
func (ToolResultMessage) Role() Role { return RoleToolResult }

// IsError reports whether the carried result is a failure.
func (m ToolResultMessage) IsError() bool {
	_, ok := m.Result.(ToolFailure)
	return ok
}

// ContentBlock is a sealed interface representing a block of content.
// The unexported marker method prevents external implementations.
type ContentBlock interface {
	contentBlock()
}

// TextBlock contains text content.
type TextBlock struct {
	Text string
}

func (TextBlock) contentBlock() {}

// ThinkingBlock contains thinking/reasoning content. Signature is opaque
// provider data that must be sent back unchanged on the next request.
type ThinkingBlock struct {
	Thinking  string
	Signature []byte
}

func (ThinkingBlock) contentBlock() {}

// ToolCallBlock is a tool call requested by the assistant.
type ToolCallBlock struct {
	ID        string
	Name      string
	Arguments json.RawMessage
	// Signature is the provider's thought signature attached to the call, if any.
	Signature []byte
}

func (ToolCallBlock) contentBlock() {}

// Interface compliance checks.
var (
	_ Message = UserMessage{}
	_ Message = AssistantMessage{}
	_ Message = ToolResultMessage{}

	_ ContentBlock = TextBlock{}
	_ ContentBlock = ThinkingBlock{}
	_ ContentBlock = ToolCallBlock{}
)
