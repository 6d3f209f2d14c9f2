package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/news_radar/pkg/model"
)

// Refiner 语义关键词扩展接口
// 失败是非致命的，调用方必须回退到基础关键词列表。
type Refiner interface {
	RefineKeywords(ctx context.Context, field model.BusinessField, base []string) ([]string, error)
}

// LLMRefiner 基于 ChatModel 的语义扩展实现
type LLMRefiner struct {
	cm      einomodel.BaseChatModel
	limiter *rate.Limiter
	topK    int
}

// NewLLMRefiner 创建语义扩展实例
func NewLLMRefiner(cm einomodel.BaseChatModel, limiter *rate.Limiter, topK int) *LLMRefiner {
	if topK <= 0 {
		topK = 5
	}
	return &LLMRefiner{cm: cm, limiter: limiter, topK: topK}
}

var _ Refiner = (*LLMRefiner)(nil)

// RefineKeywords 扩展某一领域的关键词列表
// 带重试机制，429 时指数退避。返回的扩展词不包含已有关键词。
func (r *LLMRefiner) RefineKeywords(ctx context.Context, field model.BusinessField, base []string) ([]string, error) {
	prompt := fmt.Sprintf(`领域：%s
已有关键词：%s

请为该领域补充最多 %d 个语义相关的英文检索关键词。
请务必严格按照 JSON 字符串数组格式返回，不要包含任何 markdown 标记，例如：
["keyword one", "keyword two"]`, field, strings.Join(base, ", "), r.topK)

	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: "你是一个 JSON 生成器。请只输出 JSON 字符串。"},
			{Role: schema.User, Content: prompt},
		}

		resp, err := r.cm.Generate(ctx, messages)
		if err != nil {
			if strings.Contains(err.Error(), "429") || strings.Contains(strings.ToLower(err.Error()), "too many requests") {
				lastErr = err
				if i < maxRetries {
					time.Sleep(baseDelay * time.Duration(1<<i))
					continue
				}
			}
			return nil, err
		}

		cleanContent := strings.TrimSpace(resp.Content)
		cleanContent = strings.TrimPrefix(cleanContent, "```json")
		cleanContent = strings.TrimPrefix(cleanContent, "```")
		cleanContent = strings.TrimSuffix(cleanContent, "```")

		var refined []string
		if err := json.Unmarshal([]byte(cleanContent), &refined); err != nil {
			lastErr = err
			if i < maxRetries {
				continue
			}
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}

		return dedupe(base, refined, r.topK), nil
	}
	return nil, lastErr
}

// dedupe 过滤掉与基础列表重复的扩展词（大小写不敏感），并截断到上限
func dedupe(base, refined []string, limit int) []string {
	seen := make(map[string]struct{}, len(base))
	for _, kw := range base {
		seen[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}

	var out []string
	for _, kw := range refined {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
		if len(out) >= limit {
			break
		}
	}
	return out
}
