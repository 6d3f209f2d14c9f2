package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_radar/pkg/model"
	"github.com/iWorld-y/news_radar/pkg/search"
)

// mockSearcher 可编程的搜索源
type mockSearcher struct {
	mu       sync.Mutex
	calls    int
	requests []*search.Request
	respond  func(req *search.Request) (*search.Response, error)
}

func (m *mockSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.respond(req)
}

func (m *mockSearcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func longContent(marker string) string {
	return marker + " " + strings.Repeat("news content body ", 60)
}

func resultFor(marker string) search.Result {
	return search.Result{
		Title:         "Story about " + marker,
		URL:           "https://example.com/" + marker,
		Content:       longContent(marker),
		PublishedDate: "2026-08-28",
	}
}

func newTestAssistant(s search.Searcher, autoRetry bool) *ResearchAssistantAgent {
	return NewResearchAssistant("assistant-test", s, autoRetry, 7,
		WithRetryBaseDelay(time.Millisecond),
		WithContentFetcher(func(url string) (string, error) {
			return "", fmt.Errorf("fetcher disabled in tests")
		}),
	)
}

func TestPerformResearch_ConvertsResults(t *testing.T) {
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		return &search.Response{Results: []search.Result{resultFor("gpu")}}, nil
	}}
	assistant := newTestAssistant(searcher, false)

	task := model.ResearchTask{ID: "t1", BusinessField: model.BusinessFieldHPC, Keywords: []string{"gpu", "supercomputer"}}
	res := assistant.PerformResearch(context.Background(), task)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 1)

	art := res.Data[0]
	assert.NotEmpty(t, art.ID)
	assert.Equal(t, "Story about gpu", art.Title)
	assert.Equal(t, "example.com", art.Source)
	assert.Equal(t, model.BusinessFieldHPC, art.BusinessField)
	assert.Equal(t, 2026, art.PublicationDate.Year())
	assert.Zero(t, art.Relevance.Overall, "raw articles carry placeholder scores")

	// 请求由任务关键词构成
	require.Len(t, searcher.requests, 1)
	assert.Equal(t, "gpu supercomputer", searcher.requests[0].Query)
}

func TestPerformResearch_SkipsThinContent(t *testing.T) {
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		return &search.Response{Results: []search.Result{
			{Title: "thin", URL: "https://example.com/thin", Content: "too short"},
			resultFor("solid"),
		}}, nil
	}}
	assistant := newTestAssistant(searcher, false)

	res := assistant.PerformResearch(context.Background(), model.ResearchTask{ID: "t1", Keywords: []string{"x"}})
	require.True(t, res.Success)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Story about solid", res.Data[0].Title)
}

func TestPerformResearch_CapsArticlesPerTask(t *testing.T) {
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		var results []search.Result
		for i := 0; i < 10; i++ {
			results = append(results, resultFor(fmt.Sprintf("story-%d", i)))
		}
		return &search.Response{Results: results}, nil
	}}
	assistant := newTestAssistant(searcher, false)

	res := assistant.PerformResearch(context.Background(), model.ResearchTask{ID: "t1", Keywords: []string{"x"}})
	require.True(t, res.Success)
	assert.Len(t, res.Data, maxArticlesPerTask)
}

func TestPerformResearch_RetriesUpToBound(t *testing.T) {
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		return nil, fmt.Errorf("provider unavailable")
	}}
	assistant := newTestAssistant(searcher, true)

	res := assistant.PerformResearch(context.Background(), model.ResearchTask{ID: "t1", BusinessField: model.BusinessFieldBitcoin, Keywords: []string{"x"}})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "bitcoin")
	// 首次调用 + 3 次重试
	assert.Equal(t, 4, searcher.callCount())
}

func TestPerformResearch_NoAutoRetrySingleAttempt(t *testing.T) {
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		return nil, fmt.Errorf("provider unavailable")
	}}
	assistant := newTestAssistant(searcher, false)

	res := assistant.PerformResearch(context.Background(), model.ResearchTask{ID: "t1", Keywords: []string{"x"}})
	assert.False(t, res.Success)
	assert.Equal(t, 1, searcher.callCount())
}

func TestPerformResearch_RecoversOnLaterAttempt(t *testing.T) {
	var attempt int
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		attempt++
		if attempt < 3 {
			return nil, fmt.Errorf("flaky provider")
		}
		return &search.Response{Results: []search.Result{resultFor("recovered")}}, nil
	}}
	assistant := newTestAssistant(searcher, true)

	res := assistant.PerformResearch(context.Background(), model.ResearchTask{ID: "t1", Keywords: []string{"x"}})
	require.True(t, res.Success)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, 3, searcher.callCount())
}

func TestPerformResearch_RetryStateNotSharedAcrossCalls(t *testing.T) {
	var failFirst bool
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		if !failFirst {
			failFirst = true
			return nil, fmt.Errorf("one-off failure")
		}
		return &search.Response{Results: []search.Result{resultFor("ok")}}, nil
	}}
	assistant := newTestAssistant(searcher, true)

	first := assistant.PerformResearch(context.Background(), model.ResearchTask{ID: "t1", Keywords: []string{"x"}})
	require.True(t, first.Success)

	// 第二次调用从零计数开始，不受上一次的重试影响
	before := searcher.callCount()
	second := assistant.PerformResearch(context.Background(), model.ResearchTask{ID: "t2", Keywords: []string{"y"}})
	require.True(t, second.Success)
	assert.Equal(t, before+1, searcher.callCount())
}

func TestPerformResearch_ContextCancelled(t *testing.T) {
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		return nil, fmt.Errorf("provider unavailable")
	}}
	assistant := newTestAssistant(searcher, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := assistant.PerformResearch(ctx, model.ResearchTask{ID: "t1", Keywords: []string{"x"}})
	assert.False(t, res.Success)
}

func TestPerformResearch_TruncatesOnRuneBoundary(t *testing.T) {
	// 6000 字节的三字节 rune 正文：5000 落在 rune 内部，
	// 截断必须退回边界而不是留下非法 UTF-8
	searcher := &mockSearcher{respond: func(req *search.Request) (*search.Response, error) {
		return &search.Response{Results: []search.Result{{
			Title:   "multibyte",
			URL:     "https://example.com/zh",
			Content: strings.Repeat("研究动态", 500),
		}}}, nil
	}}
	assistant := newTestAssistant(searcher, false)

	res := assistant.PerformResearch(context.Background(), model.ResearchTask{ID: "t1", Keywords: []string{"x"}})
	require.True(t, res.Success)
	require.Len(t, res.Data, 1)

	content := res.Data[0].Content
	assert.LessOrEqual(t, len(content), 5000)
	assert.True(t, utf8.ValidString(content))
	assert.Equal(t, 4998, len(content))
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "abc", truncateUTF8("abc", 10))
	assert.Equal(t, "ab", truncateUTF8("abcd", 2))
	// "雷" 占 3 字节，limit 落在中间时整字丢弃
	assert.Equal(t, "雷", truncateUTF8("雷达", 4))
	assert.Equal(t, "雷", truncateUTF8("雷达", 5))
	assert.Equal(t, "雷达", truncateUTF8("雷达", 6))
	assert.Equal(t, "", truncateUTF8("雷", 2))
}
