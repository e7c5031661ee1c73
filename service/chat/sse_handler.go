package chat

import (
	"stock-dashboard-backend/model"
	"stock-dashboard-backend/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ModelHeader 响应头，携带实际提供服务的模型名称
const ModelHeader = "X-Assistant-Model"

type startPayload struct {
	MessageID string `json:"messageId"`
	Model     string `json:"model"`
	ModelID   string `json:"modelId"`
}

type textPayload struct {
	Delta string `json:"delta"`
}

type finishPayload struct {
	FinishReason string          `json:"finishReason"`
	Message      model.UIMessage `json:"message"`
}

// GinSSEStream 基于 Gin 的 Stream 实现，使用 SSE 转发模型输出，
// 同时拼装出完整的助手消息供客户端保存
type GinSSEStream struct {
	Ctx     *gin.Context
	Message model.UIMessage

	opened bool
}

var _ Stream = &GinSSEStream{}

func NewGinSSEStream(c *gin.Context) *GinSSEStream {
	now := time.Now()
	return &GinSSEStream{
		Ctx: c,
		Message: model.UIMessage{
			ID:        uuid.NewString(),
			Role:      model.RoleAssistant,
			Parts:     []model.UIPart{},
			CreatedAt: &now,
		},
	}
}

// Opened 是否已有模型开始输出
func (h *GinSSEStream) Opened() bool {
	return h.opened
}

func (h *GinSSEStream) Open(m ModelDescriptor) error {
	h.opened = true
	h.Ctx.Header(ModelHeader, m.DisplayName())
	utils.SetSSEHeaders(h.Ctx)
	h.Ctx.Status(200)

	utils.SendSSEMessage(h.Ctx, utils.EventStart, startPayload{
		MessageID: h.Message.ID,
		Model:     m.DisplayName(),
		ModelID:   m.ID,
	})
	return h.Ctx.Request.Context().Err()
}

func (h *GinSSEStream) Send(ev Event) error {
	switch ev.Type {
	case EventText:
		h.appendText(ev.Text)
		utils.SendSSEMessage(h.Ctx, utils.EventText, textPayload{Delta: ev.Text})
	case EventToolInvocation:
		h.upsertToolInvocation(ev.ToolInvocation)
		utils.SendSSEMessage(h.Ctx, utils.EventToolInvocation, ev.ToolInvocation)
	case EventFinish:
		utils.SendSSEMessage(h.Ctx, utils.EventFinish, finishPayload{
			FinishReason: ev.FinishReason,
			Message:      h.Message,
		})
	}
	return h.Ctx.Request.Context().Err()
}

// Fail 提交之后发生错误时通知客户端
func (h *GinSSEStream) Fail(msg string) {
	utils.SendSSEMessage(h.Ctx, utils.EventError, msg)
}

func (h *GinSSEStream) Done() {
	utils.SendSSEMessage(h.Ctx, utils.EventDone, "")
}

func (h *GinSSEStream) appendText(text string) {
	parts := h.Message.Parts
	if n := len(parts); n > 0 && parts[n-1].Type == model.PartTypeText {
		parts[n-1].Text += text
		return
	}
	h.Message.Parts = append(parts, model.UIPart{Type: model.PartTypeText, Text: text})
}

func (h *GinSSEStream) upsertToolInvocation(inv *model.ToolInvocation) {
	if inv == nil {
		return
	}
	for i, p := range h.Message.Parts {
		if p.ToolInvocation != nil && p.ToolInvocation.ToolCallID == inv.ToolCallID {
			h.Message.Parts[i].ToolInvocation = inv
			return
		}
	}
	h.Message.Parts = append(h.Message.Parts, model.UIPart{
		Type:           model.PartTypeToolInvocation,
		ToolInvocation: inv,
	})
}
