package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"stock-dashboard-backend/service/chat"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "stock-dashboard"
	serverVersion = "1.0.0"

	EndpointPath = "/mcp"
)

// New 注册 queryDatabase 工具，与对话助手共用同一个 QueryTool
func New(tool *chat.QueryTool) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool(tool.Name(),
			mcp.WithDescription(tool.Description()),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description("The SELECT SQL query to execute against the database"),
			),
			mcp.WithString("purpose",
				mcp.Required(),
				mcp.Description("Brief description of what this query is trying to find out"),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		queryHandler(tool),
	)

	return s
}

// NewHTTPHandler streamable HTTP 传输，挂载在 EndpointPath。
// initialize 时分配会话 ID，工具执行记录以 "mcp:<id>" 标记来源
func NewHTTPHandler(tool *chat.QueryTool) http.Handler {
	return server.NewStreamableHTTPServer(New(tool),
		server.WithEndpointPath(EndpointPath),
	)
}

func queryHandler(tool *chat.QueryTool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args := chat.QueryArgs{
			SQL:     sql,
			Purpose: req.GetString("purpose", ""),
		}

		if session := server.ClientSessionFromContext(ctx); session != nil && session.SessionID() != "" {
			ctx = chat.WithSessionID(ctx, "mcp:"+session.SessionID())
		}

		outcome := tool.Call(ctx, args)
		data, err := json.Marshal(outcome)
		if err != nil {
			return nil, err
		}
		if !outcome.Success {
			return mcp.NewToolResultError(string(data)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
