package model

import (
	"fmt"
	"time"
)

// BusinessField 业务领域，贯穿整个流水线的分区键
type BusinessField string

const (
	BusinessFieldHPC           BusinessField = "hpc"
	BusinessFieldBitcoin       BusinessField = "bitcoin"
	BusinessFieldEnergyStorage BusinessField = "energy_storage"
)

// AllBusinessFields 固定的领域顺序，用于稳定排序与报告分组
var AllBusinessFields = []BusinessField{
	BusinessFieldHPC,
	BusinessFieldBitcoin,
	BusinessFieldEnergyStorage,
}

// ParseBusinessField 解析配置中的领域字符串
func ParseBusinessField(s string) (BusinessField, error) {
	switch BusinessField(s) {
	case BusinessFieldHPC, BusinessFieldBitcoin, BusinessFieldEnergyStorage:
		return BusinessField(s), nil
	}
	return "", fmt.Errorf("unknown business field: %q", s)
}

// TaskStatus 研究任务的生命周期状态
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// ResearchTask 单个领域的研究任务
// 由 ResearchLeader 创建，Planner 分批，Assistant 执行。
// 各阶段传值，状态流转发生在副本上。
type ResearchTask struct {
	ID            string        `json:"id"`
	BusinessField BusinessField `json:"business_field"`
	Keywords      []string      `json:"keywords"`
	Status        TaskStatus    `json:"status"`
	Results       []Article     `json:"results,omitempty"`
}

// RelevanceScores 文章的三维相关性评分与加权总分
type RelevanceScores struct {
	Technical      float64 `json:"technical"`
	Business       float64 `json:"business"`
	Sustainability float64 `json:"sustainability"`
	Overall        float64 `json:"overall"`
}

// Article 研究产出的文章
// Assistant 创建原始文章（评分为零值），Editor 重新评分后输出新对象。
type Article struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Content            string          `json:"content"`
	Source             string          `json:"source"`
	SourceURL          string          `json:"source_url"`
	PublicationDate    time.Time       `json:"publication_date"`
	ImageURL           string          `json:"image_url,omitempty"`
	Relevance          RelevanceScores `json:"relevance_scores"`
	BusinessField      BusinessField   `json:"business_field"`
	KeyInnovations     []string        `json:"key_innovations,omitempty"`
	ActionableInsights []string        `json:"actionable_insights,omitempty"`
}

// Sentiment 竞品提及的情感分类
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Value 情感映射为有符号标量: positive=+1, neutral=0, negative=-1
func (s Sentiment) Value() float64 {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	}
	return 0
}

// CompetitorMention 文章中检测到的一次竞品提及
type CompetitorMention struct {
	ID                string    `json:"id"`
	CompetitorName    string    `json:"competitor_name"`
	ArticleID         string    `json:"article_id"`
	Sentiment         Sentiment `json:"sentiment"`
	Context           string    `json:"context"`
	ProductComparison string    `json:"product_comparison,omitempty"`
	MarketPosition    string    `json:"market_position"`
	Timestamp         time.Time `json:"timestamp"`
}

// CompetitorStats 单个竞品的聚合统计
type CompetitorStats struct {
	CompetitorName     string              `json:"competitor_name"`
	TotalMentions      int                 `json:"total_mentions"`
	AverageSentiment   float64             `json:"average_sentiment"`
	ProductComparisons []string            `json:"product_comparisons,omitempty"`
	MarketPosition     string              `json:"market_position"`
	RecentMentions     []CompetitorMention `json:"recent_mentions"`
}

// CompetitorAnalysisReport 竞品分析阶段的聚合报告
type CompetitorAnalysisReport struct {
	TimeframeStart       time.Time         `json:"timeframe_start"`
	TimeframeEnd         time.Time         `json:"timeframe_end"`
	Competitors          []CompetitorStats `json:"competitors"`
	Recommendations      []string          `json:"recommendations"`
	EmergingCompetitors  []string          `json:"emerging_competitors"`
	DecliningCompetitors []string          `json:"declining_competitors"`
	GeneratedAt          time.Time         `json:"generated_at"`
}

// FieldSection 编译报告中单个领域的小节
type FieldSection struct {
	BusinessField BusinessField `json:"business_field"`
	ArticleCount  int           `json:"article_count"`
	AverageScore  float64       `json:"average_score"`
	Summary       string        `json:"summary"`
	TopInsights   []string      `json:"top_insights"`
}

// CompiledReport Editor 产出的最终编译报告
type CompiledReport struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	TotalArticles    int            `json:"total_articles"`
	AcceptedArticles int            `json:"accepted_articles"`
	Sections         []FieldSection `json:"sections"`
}
