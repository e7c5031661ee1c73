package chat

import (
	"context"
	"encoding/json"
	"stock-dashboard-backend/model"
)

type EventType string

const (
	EventText           EventType = "text"
	EventToolInvocation EventType = "tool_invocation"
	EventFinish         EventType = "finish"
)

type Event struct {
	Type           EventType
	Step           int
	Text           string
	ToolInvocation *model.ToolInvocation
	FinishReason   string
}

// Stream 一轮对话的下游输出。Open 在某个模型产出第一个事件时恰好调用一次，
// 失败的模型不会向 Stream 写入任何内容。
type Stream interface {
	Open(m ModelDescriptor) error
	Send(ev Event) error
}

// commitGate 在第一个事件到达时提交当前模型
type commitGate struct {
	stream    Stream
	model     ModelDescriptor
	committed bool
	onCommit  func()
}

func (g *commitGate) Send(ev Event) error {
	if !g.committed {
		g.committed = true
		if g.onCommit != nil {
			g.onCommit()
		}
		if err := g.stream.Open(g.model); err != nil {
			return err
		}
	}
	return g.stream.Send(ev)
}

// streamedToolCall langchaingo 在流式输出工具调用时以 JSON 数组形式回调
type streamedToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function *struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

func parseToolCallChunk(chunk []byte) ([]streamedToolCall, bool) {
	if len(chunk) < 2 || chunk[0] != '[' {
		return nil, false
	}
	var calls []streamedToolCall
	if err := json.Unmarshal(chunk, &calls); err != nil || len(calls) == 0 {
		return nil, false
	}
	for _, c := range calls {
		if c.Function == nil {
			return nil, false
		}
	}
	return calls, true
}

// stepStreamer 处理单步生成的流式回调：文本直接转发，工具调用首次出现时发出 partial-call
type stepStreamer struct {
	gate      *commitGate
	step      int
	sawText   bool
	announced map[string]bool

	// 本步已发出 partial-call 的调用
	pending []model.ToolInvocation
}

func newStepStreamer(gate *commitGate, step int, announced map[string]bool) *stepStreamer {
	return &stepStreamer{
		gate:      gate,
		step:      step,
		announced: announced,
	}
}

func (s *stepStreamer) onChunk(ctx context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	if calls, ok := parseToolCallChunk(chunk); ok {
		for _, c := range calls {
			if c.ID == "" || c.Function.Name == "" || s.announced[c.ID] {
				continue
			}
			s.announced[c.ID] = true
			inv := model.ToolInvocation{
				State:      model.ToolStatePartialCall,
				ToolCallID: c.ID,
				ToolName:   c.Function.Name,
			}
			s.pending = append(s.pending, inv)
			if err := s.gate.Send(toolEvent(s.step, &inv)); err != nil {
				return err
			}
		}
		return nil
	}

	s.sawText = true
	return s.gate.Send(Event{
		Type: EventText,
		Step: s.step,
		Text: string(chunk),
	})
}
