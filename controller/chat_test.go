package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"stock-dashboard-backend/service/chat"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssistant 按脚本向 stream 写事件后返回 err
type fakeAssistant struct {
	model  chat.ModelDescriptor
	events []chat.Event
	err    error

	turn      chat.Turn
	sessionID string
}

func (a *fakeAssistant) Run(ctx context.Context, turn chat.Turn, stream chat.Stream) (*chat.Outcome, error) {
	a.turn = turn
	a.sessionID = chat.SessionIDFromContext(ctx)

	if len(a.events) > 0 {
		if err := stream.Open(a.model); err != nil {
			return nil, err
		}
		for _, ev := range a.events {
			if err := stream.Send(ev); err != nil {
				return nil, err
			}
		}
	}
	if a.err != nil {
		return &chat.Outcome{}, a.err
	}
	served := a.model
	return &chat.Outcome{Model: &served}, nil
}

func postChat(t *testing.T, a Assistant, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	prev := assistant
	SetAssistant(a)
	t.Cleanup(func() { SetAssistant(prev) })

	r := gin.New()
	r.POST("/chat", AssistantChat)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const chatBody = `{"sessionId":"s1","dashboardContext":{"activeTab":"ssr","filters":{"branch":"Bali"}},"messages":[{"id":"m1","role":"user","parts":[{"type":"text","text":"stok Bali?"}]}]}`

func TestAssistantChatStreams(t *testing.T) {
	a := &fakeAssistant{
		model: chat.ModelDescriptor{ID: "google/gemini-2.0-flash-001", Name: "Gemini 2.0 Flash"},
		events: []chat.Event{
			{Type: chat.EventText, Text: "Stok Bali 1.200 pasang."},
			{Type: chat.EventFinish, FinishReason: "stop"},
		},
	}

	w := postChat(t, a, chatBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Gemini 2.0 Flash", w.Header().Get(chat.ModelHeader))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	assert.Contains(t, body, "event:start")
	assert.Contains(t, body, "Stok Bali 1.200 pasang.")
	assert.Contains(t, body, "event:finish")
	assert.Contains(t, body, "event:done")

	assert.Equal(t, "s1", a.sessionID)
	assert.Contains(t, a.turn.SystemPrompt, "Page: ssr")
	require.Len(t, a.turn.Messages, 1)
}

func TestAssistantChatAllModelsUnavailable(t *testing.T) {
	a := &fakeAssistant{err: &chat.ProviderError{Attempts: 3, Last: errors.New("rate limited")}}

	w := postChat(t, a, chatBody)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, w.Header().Get(chat.ModelHeader))
	assert.JSONEq(t, `{"error":"All models unavailable","detail":"all models unavailable after 3 attempts: rate limited"}`, w.Body.String())
}

func TestAssistantChatFailureAfterCommit(t *testing.T) {
	a := &fakeAssistant{
		model:  chat.ModelDescriptor{ID: "deepseek/deepseek-chat-v3-0324"},
		events: []chat.Event{{Type: chat.EventText, Text: "Sebagian"}},
		err:    errors.New("stream reset"),
	}

	w := postChat(t, a, chatBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deepseek-chat-v3-0324", w.Header().Get(chat.ModelHeader))
	body := w.Body.String()
	assert.Contains(t, body, "Sebagian")
	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, "event:done")
}

func TestAssistantChatBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"messages":`},
		{name: "missing messages", body: `{}`},
		{name: "empty messages", body: `{"messages":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(t, &fakeAssistant{}, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
