package chat

import (
	"encoding/json"
	"stock-dashboard-backend/model"

	"github.com/tmc/langchaingo/llms"
)

// ToMessageContents 将客户端消息转换为模型消息。
// 只有处于 result 状态的工具调用会带入历史，未完成的调用被丢弃。
func ToMessageContents(messages []model.UIMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case model.RoleUser:
			if mc, ok := textMessage(llms.ChatMessageTypeHuman, m.Parts); ok {
				out = append(out, mc)
			}
		case model.RoleSystem:
			if mc, ok := textMessage(llms.ChatMessageTypeSystem, m.Parts); ok {
				out = append(out, mc)
			}
		case model.RoleAssistant:
			out = append(out, assistantMessages(m.Parts)...)
		}
	}
	return out
}

func textMessage(role llms.ChatMessageType, parts []model.UIPart) (llms.MessageContent, bool) {
	mc := llms.MessageContent{Role: role}
	for _, p := range parts {
		if p.Type == model.PartTypeText && p.Text != "" {
			mc.Parts = append(mc.Parts, llms.TextContent{Text: p.Text})
		}
	}
	return mc, len(mc.Parts) > 0
}

// assistantMessages 工具调用之后出现的文本属于下一步，需要拆成新的 AI 消息
func assistantMessages(parts []model.UIPart) []llms.MessageContent {
	var out []llms.MessageContent
	current := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	var pending []llms.MessageContent

	flush := func() {
		if len(current.Parts) > 0 {
			out = append(out, current)
			out = append(out, pending...)
		}
		current = llms.MessageContent{Role: llms.ChatMessageTypeAI}
		pending = nil
	}

	for _, p := range parts {
		switch p.Type {
		case model.PartTypeText:
			if p.Text == "" {
				continue
			}
			if len(pending) > 0 {
				flush()
			}
			current.Parts = append(current.Parts, llms.TextContent{Text: p.Text})

		case model.PartTypeToolInvocation:
			inv := p.ToolInvocation
			if inv == nil || inv.State != model.ToolStateResult {
				continue
			}
			result, err := json.Marshal(inv.Result)
			if err != nil {
				continue
			}
			args := string(inv.Args)
			if args == "" {
				args = "{}"
			}
			current.Parts = append(current.Parts, llms.ToolCall{
				ID:   inv.ToolCallID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      inv.ToolName,
					Arguments: args,
				},
			})
			pending = append(pending, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: inv.ToolCallID,
						Name:       inv.ToolName,
						Content:    string(result),
					},
				},
			})
		}
	}
	flush()

	return out
}
