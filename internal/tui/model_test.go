package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/minimalist-ai/backend/internal/service/chat"
)

type fakeStore struct {
	state   chat.State
	sent    []string
	cleared int
	events  chan chatservice.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(chan chatservice.Event, 1)}
}

func (f *fakeStore) State() chat.State { return f.state }

func (f *fakeStore) Send(_ context.Context, text string) (chat.Message, error) {
	f.sent = append(f.sent, text)
	return chat.Message{ID: "1", Content: text, Sender: chat.SenderUser}, nil
}

func (f *fakeStore) Clear(context.Context) { f.cleared++ }

func (f *fakeStore) Subscribe() (<-chan chatservice.Event, func()) {
	return f.events, func() {}
}

func sized(t *testing.T, store Store) *Model {
	t.Helper()
	m := New(store)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestEnterSendsInput(t *testing.T) {
	store := newFakeStore()
	m := sized(t, store)

	typeText(m, "hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(store.sent) != 1 || store.sent[0] != "hello" {
		t.Fatalf("expected hello sent, got %v", store.sent)
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input reset, got %q", m.input.Value())
	}
}

func TestEnterIgnoredWhilePendingOrBlank(t *testing.T) {
	store := newFakeStore()
	m := sized(t, store)

	typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(stateMsg(chat.State{Pending: true}))
	m.input.SetValue("hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(store.sent) != 0 {
		t.Fatalf("expected nothing sent, got %v", store.sent)
	}
}

func TestCtrlLClears(t *testing.T) {
	store := newFakeStore()
	m := sized(t, store)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if store.cleared != 1 {
		t.Fatalf("expected one clear, got %d", store.cleared)
	}
}

func TestViewRendersMessagesAndPending(t *testing.T) {
	store := newFakeStore()
	m := sized(t, store)

	if !strings.Contains(m.View(), "How can I assist you today?") {
		t.Fatal("expected empty-state greeting")
	}

	now := time.Now()
	m.Update(stateMsg(chat.State{
		Messages: []chat.Message{
			{ID: "1", Content: "hello", Sender: chat.SenderUser, CreatedAt: now},
			{ID: "2", Content: "Thanks for sharing", Sender: chat.SenderAssistant, CreatedAt: now},
		},
		Pending: true,
	}))

	view := m.View()
	for _, want := range []string{"hello", "Thanks for sharing", "thinking", now.Local().Format(timeLayout)} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestQuitKeys(t *testing.T) {
	m := sized(t, newFakeStore())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
