package controller

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"stock-dashboard-backend/dao"
	"stock-dashboard-backend/model"
	"stock-dashboard-backend/request"
	"stock-dashboard-backend/response"

	"github.com/gin-gonic/gin"
)

func GetSessions(c *gin.Context) {
	var query request.ListSessionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}
	if query.Dashboard == "" {
		query.Dashboard = model.DefaultDashboard
	}

	sessions, err := dao.ListSessions(c.Request.Context(), query.Dashboard, query.UID)
	if err != nil {
		slog.Error(ErrGetSessions.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetSessions.Error(),
		})
		return
	}

	resp := response.GetSessionsResponse{
		Sessions: make([]response.SessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(s))
	}

	c.JSON(http.StatusOK, resp)
}

func GetSession(c *gin.Context) {
	session, err := dao.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		if dao.IsNotFound(err) {
			c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
				Msg: ErrSessionNotFound.Error(),
			})
			return
		}
		slog.Error(ErrGetSession.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetSession.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.GetSessionResponse{
		Session: toSessionResponse(*session),
	})
}

func UpsertSession(c *gin.Context) {
	var req request.UpsertSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}
	if req.ID == "" || !isJSONArray(req.Messages) {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrSessionMessagesArray.Error(),
		})
		return
	}
	if req.Dashboard == "" {
		req.Dashboard = model.DefaultDashboard
	}

	err := dao.UpsertSession(c.Request.Context(), dao.SessionUpsert{
		ID:        req.ID,
		Dashboard: req.Dashboard,
		UID:       req.UID,
		Title:     req.Title,
		Messages:  req.Messages,
	})
	if err != nil {
		slog.Error(ErrUpsertSession.Error(), "err", err, "session_id", req.ID)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpsertSession.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.OKResponse{OK: true})
}

// RenameSession 存储失败只记录日志，仍返回 ok
func RenameSession(c *gin.Context) {
	var req request.RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrSessionTitleRequired.Error(),
		})
		return
	}
	if req.ID == "" || req.Title == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrSessionTitleRequired.Error(),
		})
		return
	}

	if err := dao.RenameSession(c.Request.Context(), req.ID, *req.Title); err != nil {
		slog.Error(ErrRenameSession.Error(), "err", err, "session_id", req.ID)
	}

	c.JSON(http.StatusOK, response.OKResponse{OK: true})
}

// DeleteSession 存储失败只记录日志，仍返回 ok
func DeleteSession(c *gin.Context) {
	var req request.DeleteSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Error(ErrParseRequest.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
				Msg: ErrParseRequest.Error(),
			})
			return
		}
	}
	if req.ID == "" {
		req.ID = c.Query("id")
	}
	if req.ID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrSessionIDRequired.Error(),
		})
		return
	}

	if err := dao.DeleteSession(c.Request.Context(), req.ID); err != nil {
		slog.Error(ErrDeleteSession.Error(), "err", err, "session_id", req.ID)
	}

	c.JSON(http.StatusOK, response.OKResponse{OK: true})
}

func toSessionResponse(s model.ChatSession) response.SessionResponse {
	messages := s.Messages
	if len(messages) == 0 {
		messages = json.RawMessage("[]")
	}
	return response.SessionResponse{
		ID:        s.ID,
		Dashboard: s.Dashboard,
		Title:     s.Title,
		Messages:  messages,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed)
}
