package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"stock-dashboard-backend/model"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

const DefaultMaxSteps = 3

type AttemptState string

const (
	AttemptPending   AttemptState = "pending"
	AttemptStreaming AttemptState = "streaming"
	AttemptSucceeded AttemptState = "succeeded"
	AttemptFailed    AttemptState = "failed"
)

// Attempt 单个模型的尝试记录
type Attempt struct {
	Model ModelDescriptor
	State AttemptState
	Steps int
	Err   error
}

// Outcome 一轮对话的回退状态，Model 为最终提供服务的模型
type Outcome struct {
	Model    *ModelDescriptor
	Attempts []Attempt
}

// Tried 实际发起过请求的模型数量
func (o *Outcome) Tried() int {
	n := 0
	for _, a := range o.Attempts {
		if a.State != AttemptPending {
			n++
		}
	}
	return n
}

// Turn 一轮对话的输入
type Turn struct {
	SystemPrompt string
	Messages     []llms.MessageContent
}

type Orchestrator struct {
	providers []Provider
	tool      *QueryTool
	maxSteps  int
}

type OrchestratorOption func(*Orchestrator)

func WithMaxSteps(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

func NewOrchestrator(providers []Provider, tool *QueryTool, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		providers: providers,
		tool:      tool,
		maxSteps:  DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Models() []ModelDescriptor {
	models := make([]ModelDescriptor, 0, len(o.providers))
	for _, p := range o.providers {
		models = append(models, p.Model)
	}
	return models
}

// Run 按顺序尝试模型。模型在产出第一个事件前失败时切换到下一个；
// 一旦提交，之后的失败直接结束本轮。全部失败返回 *ProviderError。
func (o *Orchestrator) Run(ctx context.Context, turn Turn, stream Stream) (*Outcome, error) {
	outcome := &Outcome{Attempts: make([]Attempt, len(o.providers))}
	for i, p := range o.providers {
		outcome.Attempts[i] = Attempt{Model: p.Model, State: AttemptPending}
	}

	var lastErr error
	for i, p := range o.providers {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		attempt := &outcome.Attempts[i]
		gate := &commitGate{
			stream: stream,
			model:  p.Model,
			onCommit: func() {
				attempt.State = AttemptStreaming
			},
		}

		err := o.runProvider(withModel(ctx, p.Model), p, turn, gate, attempt)
		if err == nil {
			attempt.State = AttemptSucceeded
			served := p.Model
			outcome.Model = &served
			return outcome, nil
		}

		attempt.State = AttemptFailed
		attempt.Err = err

		if gate.committed {
			slog.Error("model failed after streaming started",
				"model", p.Model.ID,
				"err", err,
			)
			return outcome, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, ctxErr
		}

		slog.Warn("model attempt failed, trying next",
			"model", p.Model.ID,
			"err", err,
		)
		lastErr = err
	}

	return outcome, &ProviderError{Attempts: outcome.Tried(), Last: lastErr}
}

// runProvider 对单个模型执行最多 maxSteps 步的推理/工具调用循环。
// 最后一步不提供工具，迫使模型给出文本答案。
func (o *Orchestrator) runProvider(ctx context.Context, p Provider, turn Turn, gate *commitGate, attempt *Attempt) error {
	messages := make([]llms.MessageContent, 0, len(turn.Messages)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, turn.SystemPrompt))
	messages = append(messages, turn.Messages...)

	announced := make(map[string]bool)

	for step := 1; step <= o.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt.Steps = step

		final := step == o.maxSteps
		streamer := newStepStreamer(gate, step, announced)
		opts := []llms.CallOption{llms.WithStreamingFunc(streamer.onChunk)}
		if o.tool != nil {
			// 最后一步仍声明工具，但禁止调用
			opts = append(opts, llms.WithTools([]llms.Tool{o.tool.Definition()}))
			if final {
				opts = append(opts, llms.WithToolChoice("none"))
			}
		}

		resp, err := p.LLM.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
			return errEmptyResponse
		}
		choice := resp.Choices[0]

		if !gate.committed && choice.Content == "" && len(choice.ToolCalls) == 0 {
			return errEmptyResponse
		}

		// 未走流式回调的模型直接输出完整内容
		if !streamer.sawText && choice.Content != "" {
			if err := gate.Send(Event{Type: EventText, Step: step, Text: choice.Content}); err != nil {
				return err
			}
		}

		if final || len(choice.ToolCalls) == 0 {
			reason := errToolCallDropped
			if final {
				reason = errStepLimitReached
			}
			if err := resolvePending(gate, step, streamer.pending, nil, reason); err != nil {
				return err
			}
			return gate.Send(Event{
				Type:         EventFinish,
				Step:         step,
				FinishReason: choice.StopReason,
			})
		}

		assistant, toolResponses, err := o.executeToolCalls(ctx, gate, step, choice, announced)
		if err != nil {
			return err
		}
		executed := make(map[string]bool, len(choice.ToolCalls))
		for _, tc := range choice.ToolCalls {
			executed[tc.ID] = true
		}
		if err := resolvePending(gate, step, streamer.pending, executed, errToolCallDropped); err != nil {
			return err
		}
		messages = append(messages, assistant)
		messages = append(messages, toolResponses...)
	}

	return nil
}

// executeToolCalls 依次执行本步的工具调用，每个调用都推进到 result 状态
func (o *Orchestrator) executeToolCalls(
	ctx context.Context,
	gate *commitGate,
	step int,
	choice *llms.ContentChoice,
	announced map[string]bool,
) (llms.MessageContent, []llms.MessageContent, error) {
	assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	if choice.Content != "" {
		assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
	}

	toolResponses := make([]llms.MessageContent, 0, len(choice.ToolCalls))
	for _, tc := range choice.ToolCalls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		var name, rawArgs string
		if tc.FunctionCall != nil {
			name = tc.FunctionCall.Name
			rawArgs = tc.FunctionCall.Arguments
		}

		inv := &model.ToolInvocation{
			State:      model.ToolStatePartialCall,
			ToolCallID: id,
			ToolName:   name,
		}
		if !announced[id] {
			announced[id] = true
			if err := gate.Send(toolEvent(step, inv)); err != nil {
				return assistant, nil, err
			}
		}

		inv.State = model.ToolStateCall
		if json.Valid([]byte(rawArgs)) {
			inv.Args = json.RawMessage(rawArgs)
		}
		if err := gate.Send(toolEvent(step, inv)); err != nil {
			return assistant, nil, err
		}

		var outcome ToolOutcome
		if name != QueryToolName || o.tool == nil {
			outcome = failedOutcome("", fmt.Errorf("unknown tool: %s", name))
		} else {
			_, outcome = o.tool.CallJSON(ctx, rawArgs)
		}

		inv.State = model.ToolStateResult
		inv.Result = outcome
		if err := gate.Send(toolEvent(step, inv)); err != nil {
			return assistant, nil, err
		}

		content, err := json.Marshal(outcome)
		if err != nil {
			return assistant, nil, fmt.Errorf("failed to marshal tool outcome: %w", err)
		}

		assistant.Parts = append(assistant.Parts, llms.ToolCall{
			ID:   id,
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      name,
				Arguments: rawArgs,
			},
		})
		toolResponses = append(toolResponses, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: id,
					Name:       name,
					Content:    string(content),
				},
			},
		})
	}

	return assistant, toolResponses, nil
}

// resolvePending 流式阶段已宣告但未执行的调用以失败结果收尾
func resolvePending(gate *commitGate, step int, pending []model.ToolInvocation, executed map[string]bool, reason error) error {
	for _, inv := range pending {
		if executed[inv.ToolCallID] {
			continue
		}
		inv.State = model.ToolStateResult
		inv.Result = failedOutcome("", reason)
		if err := gate.Send(toolEvent(step, &inv)); err != nil {
			return err
		}
	}
	return nil
}

// toolEvent 复制一份调用状态，避免下游持有的指针随后续状态变化
func toolEvent(step int, inv *model.ToolInvocation) Event {
	snapshot := *inv
	return Event{
		Type:           EventToolInvocation,
		Step:           step,
		ToolInvocation: &snapshot,
	}
}
