package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iWorld-y/news_radar/pkg/config"
	"github.com/iWorld-y/news_radar/pkg/logger"
	"github.com/iWorld-y/news_radar/pkg/model"
)

// Dimension 评分维度
type Dimension string

const (
	DimensionTechnical      Dimension = "technical"
	DimensionBusiness       Dimension = "business"
	DimensionSustainability Dimension = "sustainability"
)

// ScoringConfig 评分函数可用的上下文
type ScoringConfig struct {
	PriorityKeywords  []string
	ExclusionKeywords []string
}

// ScoreFunc 单维度评分策略，纯函数，返回 [0,5]
type ScoreFunc func(article model.Article, cfg ScoringConfig) float64

// dimensionVocabulary 各维度的信号词表，默认启发式按词表命中密度打分
var dimensionVocabulary = map[Dimension][]string{
	DimensionTechnical: {
		"technology", "innovation", "research", "architecture", "chip",
		"compute", "breakthrough", "hardware", "algorithm", "benchmark",
	},
	DimensionBusiness: {
		"market", "revenue", "investment", "partnership", "acquisition",
		"growth", "customer", "contract", "expansion", "demand",
	},
	DimensionSustainability: {
		"carbon", "emission", "renewable", "sustainab", "green",
		"climate", "efficiency", "recycl", "footprint", "clean",
	},
}

// EditorAgent 对文章评分、过滤并产出编译报告
type EditorAgent struct {
	weights      config.WeightConfig
	minimumScore float64
	scoring      ScoringConfig
	scorers      map[Dimension]ScoreFunc

	topInsights int
}

// EditorOption Editor 可选参数
type EditorOption func(*EditorAgent)

// WithScorer 替换某一维度的评分策略
func WithScorer(dim Dimension, fn ScoreFunc) EditorOption {
	return func(e *EditorAgent) { e.scorers[dim] = fn }
}

// NewEditor 创建 Editor
func NewEditor(weights config.WeightConfig, minimumScore float64, scoring ScoringConfig, opts ...EditorOption) *EditorAgent {
	e := &EditorAgent{
		weights:      weights,
		minimumScore: minimumScore,
		scoring:      scoring,
		scorers: map[Dimension]ScoreFunc{
			DimensionTechnical:      vocabularyScorer(DimensionTechnical),
			DimensionBusiness:       vocabularyScorer(DimensionBusiness),
			DimensionSustainability: vocabularyScorer(DimensionSustainability),
		},
		topInsights: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EditorOutput Editor 阶段的输出：接受的文章与编译报告
type EditorOutput struct {
	Articles []model.Article      `json:"articles"`
	Report   model.CompiledReport `json:"report"`
}

// CompileReport 重新评分全部文章，按最低分硬截断，再编译报告
// 输入文章视为不可变，评分写在副本上；同一输入两次调用产出完全一致。
func (e *EditorAgent) CompileReport(articles []model.Article) (res Result[EditorOutput]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failf[EditorOutput]("editorial compilation panicked: %v", r)
		}
	}()

	scored := make([]model.Article, 0, len(articles))
	for _, art := range articles {
		scored = append(scored, e.score(art))
	}

	var accepted []model.Article
	for _, art := range scored {
		if art.Relevance.Overall >= e.minimumScore {
			accepted = append(accepted, art)
		}
	}

	report := e.buildReport(len(articles), accepted)
	logger.Log.Infof("editorial pass: %d/%d articles accepted (minimum score %.2f)", len(accepted), len(articles), e.minimumScore)

	return OK(EditorOutput{Articles: accepted, Report: report})
}

// score 计算三维评分与加权总分，返回新对象
func (e *EditorAgent) score(art model.Article) model.Article {
	out := art
	out.Relevance = model.RelevanceScores{
		Technical:      e.scorers[DimensionTechnical](art, e.scoring),
		Business:       e.scorers[DimensionBusiness](art, e.scoring),
		Sustainability: e.scorers[DimensionSustainability](art, e.scoring),
	}
	out.Relevance.Overall = out.Relevance.Technical*e.weights.Technical +
		out.Relevance.Business*e.weights.Business +
		out.Relevance.Sustainability*e.weights.Sustainability

	if len(out.ActionableInsights) == 0 {
		if insight := leadingInsight(art); insight != "" {
			out.ActionableInsights = []string{insight}
		}
	}
	return out
}

// buildReport 按领域分组编译叙述性报告
func (e *EditorAgent) buildReport(total int, accepted []model.Article) model.CompiledReport {
	report := model.CompiledReport{
		GeneratedAt:      time.Now(),
		TotalArticles:    total,
		AcceptedArticles: len(accepted),
	}

	for _, field := range model.AllBusinessFields {
		var group []model.Article
		for _, art := range accepted {
			if art.BusinessField == field {
				group = append(group, art)
			}
		}
		if len(group) == 0 {
			continue
		}

		var sum float64
		for _, art := range group {
			sum += art.Relevance.Overall
		}
		avg := sum / float64(len(group))

		ranked := make([]model.Article, len(group))
		copy(ranked, group)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Relevance.Overall > ranked[j].Relevance.Overall
		})

		var insights []string
		for _, art := range ranked {
			for _, ins := range art.ActionableInsights {
				insights = append(insights, ins)
				if len(insights) >= e.topInsights {
					break
				}
			}
			if len(insights) >= e.topInsights {
				break
			}
		}

		report.Sections = append(report.Sections, model.FieldSection{
			BusinessField: field,
			ArticleCount:  len(group),
			AverageScore:  avg,
			Summary: fmt.Sprintf("%d article(s) accepted for %s with an average relevance of %.2f; leading story: %s.",
				len(group), field, avg, ranked[0].Title),
			TopInsights: insights,
		})
	}

	return report
}

// vocabularyScorer 默认维度评分：词表命中越多分越高，优先词加分、排除词扣分
// 6 个词表命中即满分，优先词每个 +0.3（封顶 +1.0），排除词每个 -0.75，最终裁剪到 [0,5]。
func vocabularyScorer(dim Dimension) ScoreFunc {
	vocab := dimensionVocabulary[dim]
	return func(article model.Article, cfg ScoringConfig) float64 {
		text := strings.ToLower(article.Title + " " + article.Content)

		var hits int
		for _, term := range vocab {
			if strings.Contains(text, term) {
				hits++
			}
		}
		score := float64(hits) * 5.0 / 6.0

		var boost float64
		for _, kw := range cfg.PriorityKeywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				boost += 0.3
			}
		}
		if boost > 1.0 {
			boost = 1.0
		}
		score += boost

		for _, kw := range cfg.ExclusionKeywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				score -= 0.75
			}
		}

		if score < 0 {
			return 0
		}
		if score > 5 {
			return 5
		}
		return score
	}
}

// leadingInsight 截取正文首句作为可执行洞察的兜底
func leadingInsight(art model.Article) string {
	content := strings.TrimSpace(art.Content)
	if content == "" {
		return ""
	}
	if i := strings.IndexAny(content, ".!?\n"); i > 0 {
		content = content[:i+1]
	}
	const maxLen = 160
	if len(content) > maxLen {
		content = content[:maxLen]
	}
	return strings.TrimSpace(content)
}
