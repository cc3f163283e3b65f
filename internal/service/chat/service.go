package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"
	"github.com/zhouzirui/minimalist-ai/backend/internal/storage"
)

var (
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrClosed is returned by Send once Close has been called.
	ErrClosed = errors.New("conversation store is closed")
)

// DefaultSnapshotKey is the storage key holding the persisted conversation.
const DefaultSnapshotKey = "chatMessages"

// Responder produces an assistant reply given the conversation so far.
// The last message of history is the user message being answered.
type Responder interface {
	Reply(ctx context.Context, history []chat.Message) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, history []chat.Message) (string, error)

func (f ResponderFunc) Reply(ctx context.Context, history []chat.Message) (string, error) {
	return f(ctx, history)
}

// Options tunes a Service.
type Options struct {
	// SnapshotKey defaults to DefaultSnapshotKey.
	SnapshotKey string
	// StagingDelay elapses between a reply being generated and it being appended.
	StagingDelay time.Duration
	// DiscardStaleReplies drops replies that resolve after a Clear issued
	// since their send. When false a late reply lands in the cleared conversation.
	DiscardStaleReplies bool
}

// Service owns a single conversation: the ordered messages and the pending
// flag. All mutation goes through its methods; readers get copies.
type Service struct {
	mu         sync.RWMutex
	messages   []chat.Message
	inflight   int
	generation uint64
	closed     bool

	responder Responder
	snapshots storage.Store
	opts      Options
	now       func() time.Time
	newID     func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subMu       sync.Mutex
	subscribers map[int]chan Event
	nextSub     int
	subsClosed  bool
}

// NewService wires a conversation store around a reply generator and a
// snapshot store. The conversation starts empty; call Restore to rehydrate it.
func NewService(responder Responder, snapshots storage.Store, opts Options) *Service {
	if opts.SnapshotKey == "" {
		opts.SnapshotKey = DefaultSnapshotKey
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		messages:    make([]chat.Message, 0, 16),
		responder:   responder,
		snapshots:   snapshots,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[int]chan Event),
	}
}

// Restore loads the persisted snapshot. A missing or unreadable snapshot
// leaves the conversation empty.
func (s *Service) Restore(ctx context.Context) {
	restored := s.loadSnapshot(ctx)

	s.mu.Lock()
	s.messages = append(make([]chat.Message, 0, len(restored)+16), restored...)
	s.broadcastLocked(EventRestored)
	s.mu.Unlock()

	log.Printf("[chat] restored %d messages from snapshot %q", len(restored), s.opts.SnapshotKey)
}

func (s *Service) loadSnapshot(ctx context.Context) []chat.Message {
	if s.snapshots == nil {
		return nil
	}

	data, err := s.snapshots.Get(ctx, s.opts.SnapshotKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Printf("[chat] failed to read snapshot: %v", err)
		return nil
	}

	messages, err := chat.DecodeSnapshot(data)
	if err != nil {
		log.Printf("[chat] discarding snapshot: %v", err)
		return nil
	}
	return messages
}

// Send appends a user message and starts producing the assistant reply in
// the background. Blank text is rejected with ErrEmptyMessage and changes nothing.
func (s *Service) Send(ctx context.Context, text string) (chat.Message, error) {
	msg, _, err := s.SendWithState(ctx, text)
	return msg, err
}

// SendWithState is Send that also returns the conversation state right after
// the user message was appended.
func (s *Service) SendWithState(_ context.Context, text string) (chat.Message, chat.State, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, chat.State{}, ErrEmptyMessage
	}

	userMsg := chat.Message{
		ID:        s.newID(),
		Content:   text,
		Sender:    chat.SenderUser,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return chat.Message{}, chat.State{}, ErrClosed
	}
	s.messages = append(s.messages, userMsg)
	s.inflight++
	gen := s.generation
	history := s.copyMessagesLocked()
	state := s.stateLocked()
	s.persistLocked()
	s.broadcastLocked(EventMessage)
	// Add before unlocking so Wait never misses a reply that is about to start.
	s.wg.Add(1)
	s.mu.Unlock()

	go s.respond(gen, userMsg, history)

	return userMsg, state, nil
}

func (s *Service) respond(gen uint64, trigger chat.Message, history []chat.Message) {
	defer s.wg.Done()

	content, err := s.responder.Reply(s.ctx, history)
	if err == nil && strings.TrimSpace(content) == "" {
		err = errors.New("empty reply")
	}
	if err == nil && s.opts.StagingDelay > 0 {
		timer := time.NewTimer(s.opts.StagingDelay)
		select {
		case <-s.ctx.Done():
			err = s.ctx.Err()
		case <-timer.C:
		}
		timer.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--

	if err == nil && s.ctx.Err() != nil {
		err = s.ctx.Err()
	}
	if err != nil {
		log.Printf("[chat] reply to message=%s failed: %v", trigger.ID, err)
		s.broadcastLocked(EventPending)
		return
	}

	if s.opts.DiscardStaleReplies && gen != s.generation {
		log.Printf("[chat] discarding stale reply to message=%s", trigger.ID)
		s.broadcastLocked(EventPending)
		return
	}

	s.messages = append(s.messages, chat.Message{
		ID:        s.newID(),
		Content:   content,
		Sender:    chat.SenderAssistant,
		CreatedAt: s.now(),
		ReplyTo:   trigger.ID,
	})
	s.persistLocked()
	s.broadcastLocked(EventMessage)
}

// Clear empties the conversation and removes the persisted snapshot.
// In-flight replies keep running; pending is unaffected. Clear after Close
// does nothing.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.messages = s.messages[:0:0]
	s.generation++
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, s.opts.SnapshotKey); err != nil {
			log.Printf("[chat] failed to delete snapshot: %v", err)
		}
	}
	s.broadcastLocked(EventCleared)
	s.mu.Unlock()
}

// persistLocked writes the snapshot when there is something to keep.
// Empty conversations are never written; Clear deletes the key instead.
func (s *Service) persistLocked() {
	if s.snapshots == nil || len(s.messages) == 0 {
		return
	}

	data, err := chat.EncodeSnapshot(s.messages)
	if err != nil {
		log.Printf("[chat] failed to encode snapshot: %v", err)
		return
	}
	if err := s.snapshots.Put(s.ctx, s.opts.SnapshotKey, data); err != nil {
		log.Printf("[chat] failed to persist snapshot: %v", err)
	}
}

// Messages returns a copy of the conversation in insertion order.
func (s *Service) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyMessagesLocked()
}

// Pending reports whether a reply is being produced.
func (s *Service) Pending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// State returns messages and pending flag read atomically.
func (s *Service) State() chat.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Service) stateLocked() chat.State {
	return chat.State{Messages: s.copyMessagesLocked(), Pending: s.inflight > 0}
}

func (s *Service) copyMessagesLocked() []chat.Message {
	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Wait blocks until every reply started so far has resolved.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close stops accepting sends, waits for in-flight replies until ctx
// expires, then aborts the rest and closes all subscriptions.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		s.cancel()
		<-done
	}
	s.cancel()

	s.subMu.Lock()
	s.subsClosed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.subMu.Unlock()

	return err
}
