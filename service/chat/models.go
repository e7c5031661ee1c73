package chat

import (
	"fmt"
	"net/http"
	"stock-dashboard-backend/config"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ModelDescriptor 静态模型描述，列表顺序即尝试顺序
type ModelDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// DisplayName 未配置名称时取 ID 最后一段，去掉 ":" 后缀
func (m ModelDescriptor) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	name := m.ID
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, ":"); idx != -1 {
		name = name[:idx]
	}
	return name
}

// Provider 一个可尝试的模型，LLM 为 langchaingo 的统一生成接口
type Provider struct {
	Model ModelDescriptor
	LLM   llms.Model
}

func DescriptorsFromConfig(entries []config.ModelEntry) []ModelDescriptor {
	descriptors := make([]ModelDescriptor, 0, len(entries))
	for _, e := range entries {
		descriptors = append(descriptors, ModelDescriptor{
			ID:       e.ID,
			Name:     e.Name,
			Provider: e.Provider,
		})
	}
	return descriptors
}

// NewOpenAICompatibleProviders 通过 OpenAI 兼容接口（默认 OpenRouter）为每个模型创建客户端
func NewOpenAICompatibleProviders(cfg config.ModelConfig, httpClient *http.Client) ([]Provider, error) {
	providers := make([]Provider, 0, len(cfg.Models))
	for _, d := range DescriptorsFromConfig(cfg.Models) {
		llm, err := openai.New(
			openai.WithModel(d.ID),
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client for %s: %w", d.ID, err)
		}
		providers = append(providers, Provider{Model: d, LLM: llm})
	}
	return providers, nil
}
