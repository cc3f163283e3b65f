package chat

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// snapshotSenderBot is the sender label used by persisted snapshots for assistant turns.
const snapshotSenderBot = "bot"

type snapshotRecord struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	ReplyTo   string `json:"replyTo,omitempty"`
}

// EncodeSnapshot serializes messages into the persisted snapshot layout.
func EncodeSnapshot(messages []Message) ([]byte, error) {
	records := make([]snapshotRecord, 0, len(messages))
	for _, msg := range messages {
		sender := string(msg.Sender)
		if msg.Sender == SenderAssistant {
			sender = snapshotSenderBot
		}
		records = append(records, snapshotRecord{
			ID:        msg.ID,
			Content:   msg.Content,
			Sender:    sender,
			Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339Nano),
			ReplyTo:   msg.ReplyTo,
		})
	}
	return json.Marshal(records)
}

// DecodeSnapshot parses a persisted snapshot back into messages. Only a
// malformed JSON document is an error; odd records are kept and logged.
func DecodeSnapshot(data []byte) ([]Message, error) {
	var records []snapshotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	messages := make([]Message, 0, len(records))
	for i, rec := range records {
		// Anything that is not the user renders as the assistant, like the browser client.
		sender := SenderAssistant
		switch rec.Sender {
		case string(SenderUser):
			sender = SenderUser
		case snapshotSenderBot, string(SenderAssistant):
		default:
			log.Printf("[snapshot] record %d has unknown sender %q, treating as assistant", i, rec.Sender)
		}

		// An unreadable timestamp keeps the record with a zero time.
		createdAt, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			log.Printf("[snapshot] record %d has invalid timestamp %q: %v", i, rec.Timestamp, err)
			createdAt = time.Time{}
		}

		messages = append(messages, Message{
			ID:        rec.ID,
			Content:   rec.Content,
			Sender:    sender,
			CreatedAt: createdAt,
			ReplyTo:   rec.ReplyTo,
		})
	}
	return messages, nil
}
