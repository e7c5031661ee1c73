package request

import (
	"stock-dashboard-backend/model"
	"stock-dashboard-backend/service/chat"
)

type ChatRequest struct {
	Messages         []model.UIMessage      `json:"messages" binding:"required"`
	DashboardContext *chat.DashboardContext `json:"dashboardContext"`
	SessionID        string                 `json:"sessionId"`
}
