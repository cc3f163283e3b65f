package chat

import (
	"strings"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 9, 18, 4, 5, 123456789, time.FixedZone("CET", 3600))
	in := []Message{
		{ID: "u1", Content: "hello there", Sender: SenderUser, CreatedAt: created},
		{ID: "a1", Content: "hi", Sender: SenderAssistant, CreatedAt: created.Add(2 * time.Second), ReplyTo: "u1"},
	}

	data, err := EncodeSnapshot(in)
	if err != nil {
		t.Fatalf("EncodeSnapshot err: %v", err)
	}
	if !strings.Contains(string(data), `"sender":"bot"`) {
		t.Fatalf("expected assistant turns stored as bot, got %s", data)
	}

	out, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot err: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID || out[i].Content != in[i].Content || out[i].Sender != in[i].Sender || out[i].ReplyTo != in[i].ReplyTo {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, out[i], in[i])
		}
		if !out[i].CreatedAt.Equal(in[i].CreatedAt) {
			t.Fatalf("timestamp mismatch at %d: got %s want %s", i, out[i].CreatedAt, in[i].CreatedAt)
		}
	}
}

func TestDecodeSnapshotFromBrowserLayout(t *testing.T) {
	raw := `[{"id":"1","content":"hello","sender":"user","timestamp":"2024-05-01T10:00:00.000Z"},` +
		`{"id":"2","content":"Thanks for sharing that with me. What else is on your mind?","sender":"bot","timestamp":"2024-05-01T10:00:02.000Z"}]`

	out, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeSnapshot err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if out[0].Sender != SenderUser || out[1].Sender != SenderAssistant {
		t.Fatalf("unexpected senders: %s, %s", out[0].Sender, out[1].Sender)
	}
	want := time.Date(2024, 5, 1, 10, 0, 2, 0, time.UTC)
	if !out[1].CreatedAt.Equal(want) {
		t.Fatalf("unexpected timestamp: got %s want %s", out[1].CreatedAt, want)
	}
}

func TestDecodeSnapshotRejectsMalformedJSON(t *testing.T) {
	for _, raw := range []string{`{oops`, `{"id":"1"}`} {
		if _, err := DecodeSnapshot([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", raw)
		}
	}
}

func TestDecodeSnapshotKeepsOddRecords(t *testing.T) {
	raw := `[{"id":"1","content":"x","sender":"user","timestamp":"yesterday"},` +
		`{"id":"2","content":"y","sender":"system","timestamp":"2024-05-01T10:00:00Z"}]`

	out, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeSnapshot err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected both records kept, got %d", len(out))
	}
	if out[0].Sender != SenderUser || !out[0].CreatedAt.IsZero() {
		t.Fatalf("expected user record with zero time, got %+v", out[0])
	}
	if out[1].Sender != SenderAssistant || out[1].Content != "y" {
		t.Fatalf("expected unknown sender rendered as assistant, got %+v", out[1])
	}
}
