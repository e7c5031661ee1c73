package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"stock-dashboard-backend/request"
	"stock-dashboard-backend/response"
	"stock-dashboard-backend/service/chat"

	"github.com/gin-gonic/gin"
)

// Assistant 运行一轮对话，*chat.Orchestrator 满足该接口
type Assistant interface {
	Run(ctx context.Context, turn chat.Turn, stream chat.Stream) (*chat.Outcome, error)
}

var assistant Assistant

// SetAssistant 启动时注入对话编排器
func SetAssistant(a Assistant) {
	assistant = a
}

// AssistantChat 模型开始输出前的失败以 JSON 返回，之后的失败通过 SSE error 事件通知
func AssistantChat(c *gin.Context) {
	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}
	if len(req.Messages) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrEmptyConversation.Error(),
		})
		return
	}

	turn := chat.Turn{
		SystemPrompt: chat.BuildSystemPrompt(req.DashboardContext),
		Messages:     chat.ToMessageContents(req.Messages),
	}
	ctx := chat.WithSessionID(c.Request.Context(), req.SessionID)
	stream := chat.NewGinSSEStream(c)

	outcome, err := assistant.Run(ctx, turn, stream)
	if err != nil {
		handleRunError(c, stream, err)
		return
	}

	stream.Done()
	if outcome != nil && outcome.Model != nil {
		slog.Info("Assistant turn completed",
			"session_id", req.SessionID,
			"model", outcome.Model.ID,
			"attempts", outcome.Tried(),
		)
	}
}

func handleRunError(c *gin.Context, stream *chat.GinSSEStream, err error) {
	// 客户端主动停止生成
	if errors.Is(err, context.Canceled) {
		slog.Info("Assistant turn cancelled by client")
		return
	}

	if !stream.Opened() {
		var perr *chat.ProviderError
		if errors.As(err, &perr) {
			slog.Error(ErrModelsUnavailable.Error(), "err", err, "attempts", perr.Attempts)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.ErrorResponse{
				Error:  ErrModelsUnavailable.Error(),
				Detail: err.Error(),
			})
			return
		}
		slog.Error(ErrCallAssistant.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorResponse{
			Error:  ErrCallAssistant.Error(),
			Detail: err.Error(),
		})
		return
	}

	slog.Error(ErrCallAssistant.Error(), "err", err)
	stream.Fail(ErrCallAssistant.Error())
	stream.Done()
}
