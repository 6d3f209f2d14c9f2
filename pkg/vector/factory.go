package vector

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/news_radar/pkg/config"
)

// NewRefiner 根据配置创建语义扩展实例
// 向量检索未启用时返回 nil，调用方按未配置处理。
func NewRefiner(ctx context.Context, cfg *config.Settings) (Refiner, error) {
	if !cfg.VectorSearch.Enabled {
		return nil, nil
	}

	switch cfg.VectorSearch.Provider {
	case "", "openai":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("llm api key is missing")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("chat model init failed: %w", err)
		}

		var limiter *rate.Limiter
		if cfg.Concurrency.RPM > 0 {
			limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
			burst := cfg.Concurrency.QPS
			if burst <= 0 {
				burst = 1
			}
			limiter = rate.NewLimiter(limit, burst)
		}

		return NewLLMRefiner(cm, limiter, cfg.VectorSearch.TopK), nil

	default:
		return nil, fmt.Errorf("unknown vector provider: %s", cfg.VectorSearch.Provider)
	}
}
