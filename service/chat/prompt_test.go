package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPromptWithoutContext(t *testing.T) {
	prompt := BuildSystemPrompt(nil)

	assert.Contains(t, prompt, "core.stock_with_product")
	assert.Contains(t, prompt, "LIMIT 50")
	assert.NotContains(t, prompt, "Filters:")
	assert.Equal(t, prompt, BuildSystemPrompt(nil))
}

func TestBuildSystemPromptWithContext(t *testing.T) {
	dc := &DashboardContext{
		Filters:     map[string]any{"branch": "Jatim", "gender": "Men"},
		VisibleData: map[string]any{"total_pairs": 12000},
		ActiveTab:   "ssr",
	}
	prompt := BuildSystemPrompt(dc)

	assert.Contains(t, prompt, "Page: ssr")
	assert.Contains(t, prompt, `"branch":"Jatim"`)
	assert.Contains(t, prompt, `"total_pairs":12000`)
	assert.Contains(t, prompt, pageGuidance["ssr"])
	assert.Contains(t, prompt, "LIMIT 200")
}

func TestBuildSystemPromptUnknownTab(t *testing.T) {
	prompt := BuildSystemPrompt(&DashboardContext{ActiveTab: "unknown"})
	assert.Contains(t, prompt, pageGuidance["dashboard"])
	assert.Contains(t, prompt, "Filters: {}")
}

func TestSuggestedLimit(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]any
		active  int
		limit   int
	}{
		{name: "nil", filters: nil, active: 0, limit: 50},
		{name: "one", filters: map[string]any{"branch": "Bali"}, active: 1, limit: 50},
		{name: "empty values ignored", filters: map[string]any{"branch": "", "tier": []any{}, "gender": nil, "series": []string{}}, active: 0, limit: 50},
		{name: "two", filters: map[string]any{"branch": "Bali", "tier": []any{"1"}}, active: 2, limit: 200},
		{name: "numeric counts", filters: map[string]any{"min": 0, "series": []string{"CLASSIC"}}, active: 2, limit: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.active, ActiveFilterCount(tt.filters))
			assert.Equal(t, tt.limit, SuggestedLimit(tt.filters))
		})
	}
}
