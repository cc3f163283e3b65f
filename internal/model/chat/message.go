package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one immutable turn of the conversation.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
	// ReplyTo links an assistant message to the user message that triggered it.
	ReplyTo string `json:"replyTo,omitempty"`
}

// State is a point-in-time copy of the conversation.
type State struct {
	Messages []Message `json:"messages"`
	Pending  bool      `json:"pending"`
}
