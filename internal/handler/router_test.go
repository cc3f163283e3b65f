package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	modelchat "github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"
	chatService "github.com/zhouzirui/minimalist-ai/backend/internal/service/chat"
)

func TestRouterMountsAPI(t *testing.T) {
	chatSvc := chatService.NewService(chatService.ResponderFunc(func(context.Context, []modelchat.Message) (string, error) {
		return "ok", nil
	}), nil, chatService.Options{})
	router := NewRouter(chatSvc)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/api/messages", "", http.StatusOK},
		{http.MethodPost, "/api/messages", `{"content":"hi"}`, http.StatusAccepted},
		{http.MethodDelete, "/api/messages", "", http.StatusOK},
		{http.MethodOptions, "/api/messages", "", http.StatusNoContent},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte(tc.body)))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, resp.Code)
		}
	}
	chatSvc.Wait()
}
