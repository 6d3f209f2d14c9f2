package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iWorld-y/news_radar/pkg/logger"
	"github.com/iWorld-y/news_radar/pkg/model"
)

// SentimentFunc 判定一次提及的情感，纯函数，可替换
type SentimentFunc func(content, competitor string) model.Sentiment

// ComparisonFunc 提取产品对比描述，无对比时返回空串
type ComparisonFunc func(content, competitor string) string

// PositionFunc 判定竞品的市场定位信号
type PositionFunc func(content, competitor string) string

// CompetitorAnalysisAgent 在接受的文章中挖掘竞品情报的可选阶段
type CompetitorAnalysisAgent struct {
	competitors    []string
	minMentions    int
	timeframeStart time.Time
	timeframeEnd   time.Time

	sentiment  SentimentFunc
	comparison ComparisonFunc
	position   PositionFunc
}

// CompetitorOption 竞品分析可选参数
type CompetitorOption func(*CompetitorAnalysisAgent)

// WithSentimentFunc 替换情感判定策略
func WithSentimentFunc(fn SentimentFunc) CompetitorOption {
	return func(a *CompetitorAnalysisAgent) { a.sentiment = fn }
}

// WithComparisonFunc 替换产品对比提取策略
func WithComparisonFunc(fn ComparisonFunc) CompetitorOption {
	return func(a *CompetitorAnalysisAgent) { a.comparison = fn }
}

// WithPositionFunc 替换市场定位判定策略
func WithPositionFunc(fn PositionFunc) CompetitorOption {
	return func(a *CompetitorAnalysisAgent) { a.position = fn }
}

// NewCompetitorAnalysis 创建竞品分析 agent
// timeframe 窗口为 [start, end]；零值时由调用方在配置层补全。
func NewCompetitorAnalysis(competitors []string, minMentions int, start, end time.Time, opts ...CompetitorOption) *CompetitorAnalysisAgent {
	a := &CompetitorAnalysisAgent{
		competitors:    competitors,
		minMentions:    minMentions,
		timeframeStart: start,
		timeframeEnd:   end,
		sentiment:      lexiconSentiment,
		comparison:     extractComparison,
		position:       detectMarketPosition,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CompetitorOutput 竞品分析输出：原始提及与聚合报告
type CompetitorOutput struct {
	Mentions []model.CompetitorMention      `json:"mentions"`
	Report   model.CompetitorAnalysisReport `json:"report"`
}

// AnalyzeArticles 检测竞品提及并聚合成报告
// 提及检测为大小写不敏感的子串匹配，每个 (文章, 竞品) 命中对产生一条记录。
func (a *CompetitorAnalysisAgent) AnalyzeArticles(articles []model.Article) (res Result[CompetitorOutput]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failf[CompetitorOutput]("competitor analysis panicked: %v", r)
		}
	}()

	var mentions []model.CompetitorMention
	for _, art := range articles {
		lower := strings.ToLower(art.Content)
		for _, competitor := range a.competitors {
			if competitor == "" || !strings.Contains(lower, strings.ToLower(competitor)) {
				continue
			}
			mentions = append(mentions, model.CompetitorMention{
				ID:                uuid.NewString(),
				CompetitorName:    competitor,
				ArticleID:         art.ID,
				Sentiment:         a.sentiment(art.Content, competitor),
				Context:           mentionContext(art.Content, competitor),
				ProductComparison: a.comparison(art.Content, competitor),
				MarketPosition:    a.position(art.Content, competitor),
				Timestamp:         art.PublicationDate,
			})
		}
	}

	report := a.buildReport(mentions)
	logger.Log.Infof("competitor analysis: %d mentions across %d competitors", len(mentions), len(report.Competitors))

	return OK(CompetitorOutput{Mentions: mentions, Report: report})
}

// buildReport 按竞品聚合提及
// 低于 minMentions 的竞品不进入统计（原始提及列表保留全部记录）。
func (a *CompetitorAnalysisAgent) buildReport(mentions []model.CompetitorMention) model.CompetitorAnalysisReport {
	report := model.CompetitorAnalysisReport{
		TimeframeStart: a.timeframeStart,
		TimeframeEnd:   a.timeframeEnd,
		GeneratedAt:    time.Now(),
	}

	byName := make(map[string][]model.CompetitorMention)
	for _, m := range mentions {
		byName[m.CompetitorName] = append(byName[m.CompetitorName], m)
	}

	mid := a.timeframeStart.Add(a.timeframeEnd.Sub(a.timeframeStart) / 2)

	for _, competitor := range a.competitors {
		group := byName[competitor]
		if len(group) == 0 || len(group) < a.minMentions {
			continue
		}

		var sum float64
		comparisons := make([]string, 0)
		positions := make(map[string]int)
		var recentHalf, olderHalf int
		for _, m := range group {
			sum += m.Sentiment.Value()
			if m.ProductComparison != "" {
				comparisons = append(comparisons, m.ProductComparison)
			}
			positions[m.MarketPosition]++
			if m.Timestamp.After(mid) {
				recentHalf++
			} else {
				olderHalf++
			}
		}

		// 最近 5 条提及按时间戳倒序，而非插入顺序
		recent := make([]model.CompetitorMention, len(group))
		copy(recent, group)
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].Timestamp.After(recent[j].Timestamp)
		})
		if len(recent) > 5 {
			recent = recent[:5]
		}

		stats := model.CompetitorStats{
			CompetitorName:     competitor,
			TotalMentions:      len(group),
			AverageSentiment:   sum / float64(len(group)),
			ProductComparisons: comparisons,
			MarketPosition:     dominantPosition(positions),
			RecentMentions:     recent,
		}
		report.Competitors = append(report.Competitors, stats)

		if recentHalf > olderHalf {
			report.EmergingCompetitors = append(report.EmergingCompetitors, competitor)
		} else if olderHalf > recentHalf {
			report.DecliningCompetitors = append(report.DecliningCompetitors, competitor)
		}

		report.Recommendations = append(report.Recommendations, recommendation(stats))
	}

	return report
}

// mentionContext 截取提及位置前后各 120 字节作为上下文片段
// 窗口边界对齐到 rune，保证片段是合法 UTF-8。
func mentionContext(content, competitor string) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(competitor))
	if idx < 0 {
		return ""
	}
	const window = 120
	start := idx - window
	if start < 0 {
		start = 0
	}
	for start < idx && !utf8.RuneStart(content[start]) {
		start++
	}
	end := idx + len(competitor) + window
	if end > len(content) {
		end = len(content)
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end--
	}
	return strings.TrimSpace(content[start:end])
}

// 情感词表，提及附近出现越多正/负面词，情感越偏向对应方向
var (
	positiveCues = []string{"growth", "success", "record", "leading", "innovative", "wins", "strong", "expansion", "breakthrough", "profit"}
	negativeCues = []string{"loss", "decline", "lawsuit", "failure", "layoff", "struggles", "shutdown", "bankrupt", "weak", "fine"}
)

// lexiconSentiment 默认情感判定：统计提及上下文中的正负面词
func lexiconSentiment(content, competitor string) model.Sentiment {
	ctx := strings.ToLower(mentionContext(content, competitor))
	if ctx == "" {
		return model.SentimentNeutral
	}

	var pos, neg int
	for _, cue := range positiveCues {
		if strings.Contains(ctx, cue) {
			pos++
		}
	}
	for _, cue := range negativeCues {
		if strings.Contains(ctx, cue) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	}
	return model.SentimentNeutral
}

// 对比线索词
var comparisonCues = []string{" than ", "compared to", " versus ", " vs ", " vs. ", "outperform"}

// extractComparison 默认产品对比提取：返回同时包含竞品名与对比线索的句子
func extractComparison(content, competitor string) string {
	lowerName := strings.ToLower(competitor)
	for _, sentence := range strings.Split(content, ".") {
		lower := strings.ToLower(sentence)
		if !strings.Contains(lower, lowerName) {
			continue
		}
		for _, cue := range comparisonCues {
			if strings.Contains(lower, cue) {
				return strings.TrimSpace(sentence)
			}
		}
	}
	return ""
}

// detectMarketPosition 默认市场定位判定
func detectMarketPosition(content, competitor string) string {
	ctx := strings.ToLower(mentionContext(content, competitor))
	switch {
	case strings.Contains(ctx, "market leader") || strings.Contains(ctx, "dominant") || strings.Contains(ctx, "largest"):
		return "leader"
	case strings.Contains(ctx, "startup") || strings.Contains(ctx, "emerging") || strings.Contains(ctx, "new entrant"):
		return "emerging"
	case strings.Contains(ctx, "niche"):
		return "niche"
	}
	return "established"
}

// dominantPosition 取出现次数最多的定位，计数相同按字典序保证确定性
func dominantPosition(counts map[string]int) string {
	var best string
	var bestCount int
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// recommendation 基于聚合统计生成建议条目
func recommendation(stats model.CompetitorStats) string {
	switch {
	case stats.AverageSentiment > 0.3:
		return fmt.Sprintf("%s is receiving strongly positive coverage (%d mentions); review their recent moves for competitive gaps.", stats.CompetitorName, stats.TotalMentions)
	case stats.AverageSentiment < -0.3:
		return fmt.Sprintf("%s is under negative coverage (%d mentions); consider targeting their weakened segments.", stats.CompetitorName, stats.TotalMentions)
	}
	return fmt.Sprintf("%s coverage is neutral (%d mentions); maintain monitoring at the current cadence.", stats.CompetitorName, stats.TotalMentions)
}
