package ckassist

import "time"

// Session is the conversation for a single prompt-to-answer interaction.
// It is created when a prompt arrives and discarded once the answer is produced.
type Session struct {
	ID           string
	Messages     []Message
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Append adds messages to the session and bumps UpdatedAt.
func (s *Session) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
	s.UpdatedAt = time.Now()
}
