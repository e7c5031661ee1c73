package chat

import (
	"context"
	"encoding/json"
	"errors"
	"stock-dashboard-backend/service/sandbox"
	"time"

	"github.com/tmc/langchaingo/llms"
)

const (
	QueryToolName = "queryDatabase"

	queryToolDescription = "Execute a read-only SQL query against the Zuma PostgreSQL database. " +
		"Use core.stock_with_product for stock analysis, core.sales_with_product for sales analysis. " +
		"For control stock use mart.sku_portfolio_size, for SSR use mart.sales_stock_ratio. " +
		"ALWAYS add LIMIT clause for non-aggregation queries."
)

// Executor 只读查询执行器，*sandbox.Sandbox 满足该接口
type Executor interface {
	Execute(ctx context.Context, sql string) (*sandbox.Result, error)
}

// QueryArgs 模型传入的工具参数
type QueryArgs struct {
	SQL     string `json:"sql"`
	Purpose string `json:"purpose"`
}

// ToolOutcome 工具结果，失败时同样以数据形式返回给模型
type ToolOutcome struct {
	Success   bool             `json:"success"`
	Purpose   string           `json:"purpose"`
	Error     string           `json:"error,omitempty"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"rowCount"`
	Truncated *bool            `json:"truncated,omitempty"`
}

// ExecutionRecord 一次工具执行的记录，交给审计
type ExecutionRecord struct {
	Args     QueryArgs
	Outcome  ToolOutcome
	Duration time.Duration
}

// RecordFunc 审计回调，不得阻塞
type RecordFunc func(ctx context.Context, rec ExecutionRecord)

type QueryTool struct {
	executor Executor
	record   RecordFunc
}

func NewQueryTool(executor Executor, record RecordFunc) *QueryTool {
	return &QueryTool{
		executor: executor,
		record:   record,
	}
}

func (t *QueryTool) Name() string {
	return QueryToolName
}

func (t *QueryTool) Description() string {
	return queryToolDescription
}

// Definition 提供给模型的工具声明
func (t *QueryTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        QueryToolName,
			Description: queryToolDescription,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"sql": map[string]any{
						"type":        "string",
						"description": "The SELECT SQL query to execute against the database",
					},
					"purpose": map[string]any{
						"type":        "string",
						"description": "Brief description of what this query is trying to find out",
					},
				},
				"required": []string{"sql", "purpose"},
			},
		},
	}
}

// CallJSON 解析模型给出的 JSON 参数后执行，参数非法时返回失败结果
func (t *QueryTool) CallJSON(ctx context.Context, rawArgs string) (QueryArgs, ToolOutcome) {
	var args QueryArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return args, failedOutcome(args.Purpose, errors.New("invalid tool arguments: "+err.Error()))
	}
	return args, t.Call(ctx, args)
}

// Call 从不返回 error，失败被转换为 success=false 的结果
func (t *QueryTool) Call(ctx context.Context, args QueryArgs) ToolOutcome {
	start := time.Now()

	var outcome ToolOutcome
	res, err := t.executor.Execute(ctx, args.SQL)
	if err != nil {
		outcome = failedOutcome(args.Purpose, err)
	} else {
		truncated := res.Truncated
		outcome = ToolOutcome{
			Success:   true,
			Purpose:   args.Purpose,
			Columns:   res.Columns,
			Rows:      res.Rows,
			RowCount:  res.RowCount,
			Truncated: &truncated,
		}
	}

	if t.record != nil {
		t.record(ctx, ExecutionRecord{
			Args:     args,
			Outcome:  outcome,
			Duration: time.Since(start),
		})
	}

	return outcome
}

func failedOutcome(purpose string, err error) ToolOutcome {
	return ToolOutcome{
		Success:  false,
		Purpose:  purpose,
		Error:    err.Error(),
		Columns:  []string{},
		Rows:     []map[string]any{},
		RowCount: 0,
	}
}
