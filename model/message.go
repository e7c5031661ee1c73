package model

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

const (
	PartTypeText           = "text"
	PartTypeToolInvocation = "tool-invocation"
)

// ToolInvocationState 工具调用状态：partial-call → call → result
type ToolInvocationState string

const (
	ToolStatePartialCall ToolInvocationState = "partial-call"
	ToolStateCall        ToolInvocationState = "call"
	ToolStateResult      ToolInvocationState = "result"
)

// UIMessage 客户端与服务端之间传递、持久化的对话消息
type UIMessage struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Parts     []UIPart   `json:"parts"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type UIPart struct {
	Type           string          `json:"type"`
	Text           string          `json:"text,omitempty"`
	ToolInvocation *ToolInvocation `json:"toolInvocation,omitempty"`
}

type ToolInvocation struct {
	State      ToolInvocationState `json:"state"`
	ToolCallID string              `json:"toolCallId"`
	ToolName   string              `json:"toolName"`
	Args       json.RawMessage     `json:"args,omitempty"`
	Result     any                 `json:"result,omitempty"`
}

// FirstUserText 返回第一条用户消息的第一个文本片段
func FirstUserText(messages []UIMessage) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		if len(m.Parts) > 0 && m.Parts[0].Type == PartTypeText {
			return m.Parts[0].Text
		}
		return ""
	}
	return ""
}
