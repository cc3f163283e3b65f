package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/minimalist-ai/backend/internal/service/chat"
	"github.com/zhouzirui/minimalist-ai/backend/pkg/utils"
)

const defaultHeartbeat = 15 * time.Second

// Handler pushes conversation state to browsers via Server-Sent Events
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc, heartbeat: defaultHeartbeat}
}

// RegisterRoutes registers the SSE endpoint
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.handleStream)
}

// handleStream sends the current state, then one state event per mutation
// until the client goes away.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := h.chatSvc.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	ctx := r.Context()
	log.Printf("[sse] opening conversation stream remote=%s", r.RemoteAddr)

	if err := utils.SendSSEEvent(w, flusher, "state", h.chatSvc.State()); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing conversation stream remote=%s", r.RemoteAddr)
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "state", evt.State); err != nil {
				log.Printf("[sse] write failed: %v", err)
				return
			}
		case t := <-ticker.C:
			if err := utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": t.UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}
