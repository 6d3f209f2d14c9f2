package agent

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"github.com/iWorld-y/news_radar/pkg/logger"
	"github.com/iWorld-y/news_radar/pkg/model"
	"github.com/iWorld-y/news_radar/pkg/search"
)

const (
	maxRetries     = 3
	retryBaseDelay = 2 * time.Second

	maxResultsPerTask  = 10
	maxArticlesPerTask = 6
	minContentLength   = 100
	fetchThreshold     = 500
	maxContentLength   = 5000
)

// ContentFetcher 抓取 URL 正文，测试中可替换
type ContentFetcher func(url string) (string, error)

// ResearchAssistantAgent 执行单个研究任务的工作者
// 同一实例可被池复用；重试计数是每次调用的局部状态，不跨任务泄漏。
type ResearchAssistantAgent struct {
	name          string
	searcher      search.Searcher
	fetcher       ContentFetcher
	autoRetry     bool
	taskTimeout   time.Duration
	retryDelay    time.Duration
	timeframeDays int
}

// AssistantOption Assistant 可选参数
type AssistantOption func(*ResearchAssistantAgent)

// WithContentFetcher 替换正文抓取实现
func WithContentFetcher(f ContentFetcher) AssistantOption {
	return func(a *ResearchAssistantAgent) { a.fetcher = f }
}

// WithTaskTimeout 设置单任务超时，超时按可重试的 provider 错误处理
func WithTaskTimeout(d time.Duration) AssistantOption {
	return func(a *ResearchAssistantAgent) { a.taskTimeout = d }
}

// WithRetryBaseDelay 设置重试退避基准，测试用
func WithRetryBaseDelay(d time.Duration) AssistantOption {
	return func(a *ResearchAssistantAgent) { a.retryDelay = d }
}

// NewResearchAssistant 创建 Assistant
func NewResearchAssistant(name string, searcher search.Searcher, autoRetry bool, timeframeDays int, opts ...AssistantOption) *ResearchAssistantAgent {
	a := &ResearchAssistantAgent{
		name:          name,
		searcher:      searcher,
		fetcher:       fetchAndCleanContent,
		autoRetry:     autoRetry,
		taskTimeout:   60 * time.Second,
		retryDelay:    retryBaseDelay,
		timeframeDays: timeframeDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PerformResearch 针对外部搜索源执行一个任务，返回原始文章
// provider 失败时若开启 autoRetry 则以同一任务最多重试 maxRetries 次，
// 超出上限返回失败结果，重试状态随调用结束一并丢弃。
func (a *ResearchAssistantAgent) PerformResearch(ctx context.Context, task model.ResearchTask) (res Result[[]model.Article]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failf[[]model.Article]("research panicked: %v", r)
		}
	}()

	req := a.buildRequest(task)

	attempts := maxRetries
	if !a.autoRetry {
		attempts = 0
	}

	var lastErr error
	for i := 0; i <= attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return Fail[[]model.Article](ctx.Err())
			case <-time.After(a.retryDelay * time.Duration(1<<(i-1))):
			}
			logger.Log.Debugf("[%s] retrying task %s (attempt %d/%d)", a.name, task.ID, i, attempts)
		}

		callCtx, cancel := context.WithTimeout(ctx, a.taskTimeout)
		resp, err := a.searcher.Search(callCtx, req)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}

		return OK(a.collectArticles(task, resp))
	}

	logger.Log.Errorf("[%s] task %s failed after %d attempts: %v", a.name, task.ID, attempts+1, lastErr)
	return Failf[[]model.Article]("research failed for field %s: %v", task.BusinessField, lastErr)
}

// buildRequest 由任务构造搜索请求，时间窗口取配置的 timeframe
func (a *ResearchAssistantAgent) buildRequest(task model.ResearchTask) *search.Request {
	now := time.Now()
	return &search.Request{
		Query:      strings.Join(task.Keywords, " "),
		Topic:      "news",
		MaxResults: maxResultsPerTask,
		StartDate:  now.AddDate(0, 0, -a.timeframeDays).Format(time.DateOnly),
		EndDate:    now.Format(time.DateOnly),
	}
}

// collectArticles 从搜索结果中筛出有效文章
// 摘要过短时尝试抓取原文；评分留空由 Editor 计算。
func (a *ResearchAssistantAgent) collectArticles(task model.ResearchTask, resp *search.Response) []model.Article {
	var articles []model.Article
	for _, item := range resp.Results {
		content := item.Content
		if len(content) < fetchThreshold {
			fetched, err := a.fetcher(item.URL)
			if err == nil && len(fetched) > len(content) {
				content = fetched
			}
		}
		if len(content) > maxContentLength {
			content = truncateUTF8(content, maxContentLength)
		}
		if len(content) < minContentLength {
			continue
		}

		articles = append(articles, model.Article{
			ID:              uuid.NewString(),
			Title:           item.Title,
			Content:         content,
			Source:          sourceFromURL(item.URL),
			SourceURL:       item.URL,
			PublicationDate: parsePublishedDate(item.PublishedDate),
			ImageURL:        item.ImageURL,
			BusinessField:   task.BusinessField,
		})

		if len(articles) >= maxArticlesPerTask {
			break
		}
	}
	return articles
}

// fetchAndCleanContent 抓取 URL 并提取核心文本
func fetchAndCleanContent(url string) (string, error) {
	article, err := readability.FromURL(url, 30*time.Second)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// truncateUTF8 按字节上限截断，回退到 rune 边界避免截出非法 UTF-8
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// sourceFromURL 从链接提取来源站点
func sourceFromURL(rawURL string) string {
	s := strings.TrimPrefix(rawURL, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

// parsePublishedDate 兼容各 provider 的日期格式，解析失败返回零值
func parsePublishedDate(s string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		time.DateOnly,
		time.RFC1123,
		time.RFC1123Z,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
