package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ChatMessage is broadcast once and then dropped from memory.
type ChatMessage struct {
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	SenderID  SessionID `json:"senderId"`
	UserID    *string   `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage stamps text with the sender's metadata.
// maxLen <= 0 disables the length check.
func NewChatMessage(from Session, text string, maxLen int, at time.Time) (ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		return ChatMessage{}, ErrMessageTooLong
	}
	return ChatMessage{
		Message:   text,
		Sender:    from.Name,
		SenderID:  from.ID,
		UserID:    from.UserID,
		Timestamp: at.UTC(),
	}, nil
}
