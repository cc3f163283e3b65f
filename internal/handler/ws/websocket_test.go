package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	modelchat "github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/minimalist-ai/backend/internal/service/chat"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, chatSvc *chatservice.Service) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	New(chatSvc).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read err: %v", err)
	}
	return f
}

func decodeState(t *testing.T, f frame) modelchat.State {
	t.Helper()
	if f.Type != "state" {
		t.Fatalf("expected state frame, got %s: %s", f.Type, f.Data)
	}
	var state modelchat.State
	if err := json.Unmarshal(f.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestWebSocketSendAndReply(t *testing.T) {
	responder := chatservice.ResponderFunc(func(context.Context, []modelchat.Message) (string, error) {
		return "I appreciate your question. Let me provide some thoughts on that.", nil
	})
	chatSvc := chatservice.NewService(responder, nil, chatservice.Options{})
	conn := dial(t, chatSvc)

	if initial := decodeState(t, readFrame(t, conn)); len(initial.Messages) != 0 {
		t.Fatalf("unexpected initial state %+v", initial)
	}

	if err := conn.WriteJSON(map[string]any{"type": "send", "data": map[string]string{"content": "hello"}}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	// Intermediate states may be coalesced; wait for the settled one.
	for {
		state := decodeState(t, readFrame(t, conn))
		if len(state.Messages) == 2 && !state.Pending {
			if state.Messages[0].Content != "hello" || state.Messages[1].Sender != modelchat.SenderAssistant {
				t.Fatalf("unexpected messages %+v", state.Messages)
			}
			break
		}
	}
}

func TestWebSocketClear(t *testing.T) {
	responder := chatservice.ResponderFunc(func(context.Context, []modelchat.Message) (string, error) {
		return "ok", nil
	})
	chatSvc := chatservice.NewService(responder, nil, chatservice.Options{})
	if _, err := chatSvc.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send err: %v", err)
	}
	chatSvc.Wait()

	conn := dial(t, chatSvc)
	if initial := decodeState(t, readFrame(t, conn)); len(initial.Messages) != 2 {
		t.Fatalf("expected restored history, got %+v", initial)
	}

	if err := conn.WriteJSON(map[string]string{"type": "clear"}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if state := decodeState(t, readFrame(t, conn)); len(state.Messages) != 0 {
		t.Fatalf("expected cleared state, got %+v", state)
	}
}

func TestWebSocketRejectsBlankAndUnknown(t *testing.T) {
	chatSvc := chatservice.NewService(chatservice.ResponderFunc(func(context.Context, []modelchat.Message) (string, error) {
		return "ok", nil
	}), nil, chatservice.Options{})
	conn := dial(t, chatSvc)
	readFrame(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "send", "data": map[string]string{"content": "  "}}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if f := readFrame(t, conn); f.Type != "error" {
		t.Fatalf("expected error frame, got %s", f.Type)
	}

	if err := conn.WriteJSON(map[string]string{"type": "dance"}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "error" || !strings.Contains(string(f.Data), "unsupported") {
		t.Fatalf("expected unsupported error, got %s %s", f.Type, f.Data)
	}
	if n := len(chatSvc.Messages()); n != 0 {
		t.Fatalf("expected no messages, got %d", n)
	}
}

func TestWebSocketSendAfterClose(t *testing.T) {
	chatSvc := chatservice.NewService(chatservice.ResponderFunc(func(context.Context, []modelchat.Message) (string, error) {
		return "late reply", nil
	}), nil, chatservice.Options{})
	conn := dial(t, chatSvc)
	readFrame(t, conn)

	if err := chatSvc.Close(context.Background()); err != nil {
		t.Fatalf("Close err: %v", err)
	}

	if err := conn.WriteJSON(map[string]any{"type": "send", "data": map[string]string{"content": "after close"}}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "error" || !strings.Contains(string(f.Data), "shutting down") {
		t.Fatalf("expected shutdown error, got %s %s", f.Type, f.Data)
	}
	chatSvc.Wait()
	if n := len(chatSvc.Messages()); n != 0 {
		t.Fatalf("expected no messages after close, got %d", n)
	}
}
