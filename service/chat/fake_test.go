package chat

import (
	"context"
	"errors"
	"stock-dashboard-backend/model"
	"stock-dashboard-backend/service/sandbox"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// scriptedStep 模拟模型单次生成的行为
type scriptedStep struct {
	chunks     []string
	content    string
	toolCalls  []llms.ToolCall
	stopReason string
	err        error
}

type fakeLLM struct {
	steps []scriptedStep

	calls       int
	toolsSeen   []int
	toolChoices []any
	messages    [][]llms.MessageContent
}

var _ llms.Model = &fakeLLM{}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	f.toolsSeen = append(f.toolsSeen, len(opts.Tools))
	f.toolChoices = append(f.toolChoices, opts.ToolChoice)
	f.messages = append(f.messages, messages)

	if f.calls >= len(f.steps) {
		return nil, errors.New("unexpected generation call")
	}
	step := f.steps[f.calls]
	f.calls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, chunk := range step.chunks {
		if opts.StreamingFunc == nil {
			break
		}
		if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
			return nil, err
		}
	}
	if step.err != nil {
		return nil, step.err
	}

	stop := step.stopReason
	if stop == "" {
		stop = "stop"
		if len(step.toolCalls) > 0 {
			stop = "tool_calls"
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:    step.content,
			ToolCalls:  step.toolCalls,
			StopReason: stop,
		}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func failingLLM(err error) *fakeLLM {
	return &fakeLLM{steps: []scriptedStep{{err: err}}}
}

func textLLM(chunks ...string) *fakeLLM {
	content := ""
	for _, c := range chunks {
		content += c
	}
	return &fakeLLM{steps: []scriptedStep{{chunks: chunks, content: content}}}
}

func queryCall(id, args string) llms.ToolCall {
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      QueryToolName,
			Arguments: args,
		},
	}
}

type recordingStream struct {
	opened  []ModelDescriptor
	events  []Event
	sendErr error
}

func (s *recordingStream) Open(m ModelDescriptor) error {
	s.opened = append(s.opened, m)
	return nil
}

func (s *recordingStream) Send(ev Event) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingStream) text() string {
	out := ""
	for _, ev := range s.events {
		if ev.Type == EventText {
			out += ev.Text
		}
	}
	return out
}

func (s *recordingStream) toolResults() []ToolOutcome {
	var results []ToolOutcome
	for _, ev := range s.events {
		if ev.Type == EventToolInvocation && ev.ToolInvocation.State == model.ToolStateResult {
			if outcome, ok := ev.ToolInvocation.Result.(ToolOutcome); ok {
				results = append(results, outcome)
			}
		}
	}
	return results
}

func (s *recordingStream) toolStates() []string {
	var states []string
	for _, ev := range s.events {
		if ev.Type == EventToolInvocation {
			states = append(states, string(ev.ToolInvocation.State))
		}
	}
	return states
}

type fakeExecutor struct {
	mu     sync.Mutex
	result *sandbox.Result
	err    error
	sqls   []string
}

func (e *fakeExecutor) Execute(ctx context.Context, sql string) (*sandbox.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sqls = append(e.sqls, sql)
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func providersOf(llmsByID map[string]*fakeLLM, ids ...string) []Provider {
	providers := make([]Provider, 0, len(ids))
	for _, id := range ids {
		providers = append(providers, Provider{
			Model: ModelDescriptor{ID: id},
			LLM:   llmsByID[id],
		})
	}
	return providers
}
