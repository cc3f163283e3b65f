package chat

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"
	chatService "github.com/zhouzirui/minimalist-ai/backend/internal/service/chat"
	"github.com/zhouzirui/minimalist-ai/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/messages", h.handleListMessages)
	r.Post("/messages", h.handleSendMessage)
	r.Delete("/messages", h.handleClearMessages)
}

type sendMessageResponse struct {
	Message chat.Message `json:"message"`
	Pending bool         `json:"pending"`
}

// handleListMessages 返回当前会话状态
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.chatSvc.State())
}

// handleSendMessage 追加用户消息并异步生成回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}

	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, state, err := h.chatSvc.SendWithState(r.Context(), payload.Content)
	if err != nil {
		if errors.Is(err, chatService.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, "content is required")
			return
		}
		if errors.Is(err, chatService.ErrClosed) {
			utils.RespondError(w, http.StatusServiceUnavailable, "conversation store is shutting down")
			return
		}
		log.Printf("[chat] send failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "send failed")
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, sendMessageResponse{
		Message: message,
		Pending: state.Pending,
	})
}

// handleClearMessages 清空会话并删除快照
func (h *Handler) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	h.chatSvc.Clear(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
