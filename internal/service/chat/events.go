package chat

import "github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"

// EventKind names the mutation that produced an Event.
type EventKind string

const (
	EventRestored EventKind = "restored"
	EventMessage  EventKind = "message"
	EventPending  EventKind = "pending"
	EventCleared  EventKind = "cleared"
)

// Event carries the full conversation state after a mutation.
type Event struct {
	Kind  EventKind  `json:"kind"`
	State chat.State `json:"state"`
}

// Subscribe registers for state changes. Each subscriber holds at most one
// undelivered event; a newer event replaces an unread one, so slow readers
// always see the latest state. The returned func unsubscribes. After Close
// the channel is returned already closed.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)

	s.subMu.Lock()
	if s.subsClosed {
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once bool
	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if once {
			return
		}
		once = true
		if existing, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

// broadcastLocked must be called with s.mu held so events follow mutation order.
func (s *Service) broadcastLocked(kind EventKind) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if len(s.subscribers) == 0 {
		return
	}

	evt := Event{Kind: kind, State: s.stateLocked()}
	for _, ch := range s.subscribers {
		select {
		case ch <- evt:
			continue
		default:
		}
		// drop the stale event and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}
