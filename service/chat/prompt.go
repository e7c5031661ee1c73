package chat

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"strings"
	"text/template"
)

const (
	defaultPage = "dashboard"

	defaultQueryLimit  = 50
	filteredQueryLimit = 200

	// 激活的筛选条件达到该数量时放宽 LIMIT
	filteredQueryThreshold = 2
)

//go:embed prompts/system.tmpl
var systemPromptTemplate string

var systemPrompt = template.Must(template.New("system").Parse(systemPromptTemplate))

// pageGuidance 按页面给出的回答侧重点
var pageGuidance = map[string]string{
	"dashboard": "The user is on the ACCURATE STOCK page (current stock snapshot per warehouse and store). Answer at BRANCH/WAREHOUSE/KPI level first. Key metrics: total_pairs, dead_stock_pairs, est_rsp_value, unique_articles. Main tables: core.stock_with_product and core.dashboard_cache.",
	"control":   "The user is on the CONTROL STOCK page (SKU portfolio analysis per size). Focus on size run analysis, fill accuracy, and which articles have incomplete size runs. Main table: mart.sku_portfolio_size.",
	"ssr":       "The user is on the SALES STOCK RATIO page (stock vs sales). Focus on the S/S ratio, fast and slow moving articles, stockout or overstock risk. Main tables: mart.sales_stock_ratio and core.sales_with_product.",
}

// DashboardContext 客户端当前的页面、筛选条件与可见数据
type DashboardContext struct {
	Filters     map[string]any `json:"filters,omitempty"`
	VisibleData map[string]any `json:"visibleData,omitempty"`
	ActiveTab   string         `json:"activeTab,omitempty"`
}

type promptData struct {
	HasContext     bool
	ActivePage     string
	FiltersJSON    string
	VisibleJSON    string
	PageGuidance   string
	SuggestedLimit int
}

// BuildSystemPrompt 纯函数，缺失的上下文字段退化为默认说明
func BuildSystemPrompt(dc *DashboardContext) string {
	data := promptData{
		ActivePage:     defaultPage,
		SuggestedLimit: SuggestedLimit(nil),
	}

	if dc != nil {
		data.HasContext = true
		if dc.ActiveTab != "" {
			data.ActivePage = dc.ActiveTab
		}
		data.FiltersJSON = toJSON(dc.Filters)
		data.VisibleJSON = toJSON(dc.VisibleData)
		data.SuggestedLimit = SuggestedLimit(dc.Filters)
	}

	data.PageGuidance = pageGuidance[data.ActivePage]
	if data.PageGuidance == "" {
		data.PageGuidance = pageGuidance[defaultPage]
	}

	var sb strings.Builder
	if err := systemPrompt.Execute(&sb, data); err != nil {
		// 模板在编译期固定，仅在数据无法渲染时发生
		slog.Error("failed to render system prompt", "err", err)
	}
	return sb.String()
}

// ActiveFilterCount 非 nil、非空字符串、非空列表的筛选条件数量
func ActiveFilterCount(filters map[string]any) int {
	count := 0
	for _, v := range filters {
		switch val := v.(type) {
		case nil:
		case string:
			if val != "" {
				count++
			}
		case []any:
			if len(val) > 0 {
				count++
			}
		case []string:
			if len(val) > 0 {
				count++
			}
		default:
			count++
		}
	}
	return count
}

func SuggestedLimit(filters map[string]any) int {
	if ActiveFilterCount(filters) >= filteredQueryThreshold {
		return filteredQueryLimit
	}
	return defaultQueryLimit
}

func toJSON(v map[string]any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
