package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings 项目配置聚合结构体
// 对工作流而言只读；编排器在构造时取一次深拷贝快照。
type Settings struct {
	Prompts            PromptConfig      `yaml:"prompts"`
	Branches           []BranchConfig    `yaml:"branches"`
	Keywords           []string          `yaml:"keywords"`
	TimeframeDays      int               `yaml:"timeframe_days"`
	Sources            SourceConfig      `yaml:"sources"`
	RelevanceWeights   WeightConfig      `yaml:"relevance_weights"`
	MinimumScore       float64           `yaml:"minimum_score"`
	PriorityKeywords   []string          `yaml:"priority_keywords"`
	ExclusionKeywords  []string          `yaml:"exclusion_keywords"`
	CompetitorAnalysis CompetitorConfig  `yaml:"competitor_analysis"`
	VectorSearch       VectorConfig      `yaml:"vector_search"`
	Workflow           WorkflowConfig    `yaml:"workflow"`
	Search             SearchConfig      `yaml:"search"`
	LLM                LLMConfig         `yaml:"llm"`
	Concurrency        ConcurrencyConfig `yaml:"concurrency"`
	Log                LogConfig         `yaml:"log"`
	DB                 DBConfig          `yaml:"db"`
}

// PromptConfig 提示词模板
type PromptConfig struct {
	Research string `yaml:"research"`
	Summary  string `yaml:"summary"`
	Refine   string `yaml:"refine"`
}

// BranchConfig 公司分支，标记所属业务领域
type BranchConfig struct {
	Name          string `yaml:"name"`
	BusinessField string `yaml:"business_field"`
}

// SourceConfig 信息来源开关
type SourceConfig struct {
	News     bool `yaml:"news"`
	Academic bool `yaml:"academic"`
	Industry bool `yaml:"industry"`
}

// WeightConfig 三维相关性权重，各项取值 [0,1]，约定和约等于 1（不强制）
type WeightConfig struct {
	Technical      float64 `yaml:"technical"`
	Business       float64 `yaml:"business"`
	Sustainability float64 `yaml:"sustainability"`
}

// CompetitorConfig 竞品分析子配置
type CompetitorConfig struct {
	Enabled              bool     `yaml:"enabled"`
	Competitors          []string `yaml:"competitors"`
	UpdateFrequencyHours int      `yaml:"update_frequency_hours"`
	MinMentionsThreshold int      `yaml:"min_mentions_threshold"`
	AutoReport           bool     `yaml:"auto_report"`
}

// VectorConfig 向量检索子配置（语义关键词扩展）
type VectorConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Provider  string  `yaml:"provider"` // 目前支持 "openai"
	Dimension int     `yaml:"dimension"`
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
}

// WorkflowConfig 编排相关配置
type WorkflowConfig struct {
	MaxParallelTasks   int    `yaml:"max_parallel_tasks"`
	TaskPriority       string `yaml:"task_priority"` // balanced / depth / breadth
	PoolSize           int    `yaml:"pool_size"`
	AutoRetry          bool   `yaml:"auto_retry"`
	TaskTimeoutSeconds int    `yaml:"task_timeout_seconds"`
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Provider string        `yaml:"provider"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// 编排默认值
const (
	DefaultMaxParallelTasks = 3
	DefaultPoolSize         = 3
	DefaultTimeframeDays    = 7
	DefaultTaskTimeout      = 60
)

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults 补全未设置的编排参数
func (s *Settings) ApplyDefaults() {
	if s.Workflow.MaxParallelTasks <= 0 {
		s.Workflow.MaxParallelTasks = DefaultMaxParallelTasks
	}
	if s.Workflow.PoolSize <= 0 {
		s.Workflow.PoolSize = DefaultPoolSize
	}
	if s.Workflow.TaskPriority == "" {
		s.Workflow.TaskPriority = "balanced"
	}
	if s.Workflow.TaskTimeoutSeconds <= 0 {
		s.Workflow.TaskTimeoutSeconds = DefaultTaskTimeout
	}
	if s.TimeframeDays <= 0 {
		s.TimeframeDays = DefaultTimeframeDays
	}
}

// Validate 校验运行一次工作流所需的最小配置
func (s *Settings) Validate() error {
	if len(s.Branches) == 0 {
		return fmt.Errorf("no company branches configured")
	}
	for _, b := range s.Branches {
		if b.BusinessField == "" {
			return fmt.Errorf("branch %q missing business field", b.Name)
		}
	}
	return nil
}

// Clone 深拷贝，供编排器做防御性快照
func (s *Settings) Clone() *Settings {
	out := *s
	out.Branches = append([]BranchConfig(nil), s.Branches...)
	out.Keywords = append([]string(nil), s.Keywords...)
	out.PriorityKeywords = append([]string(nil), s.PriorityKeywords...)
	out.ExclusionKeywords = append([]string(nil), s.ExclusionKeywords...)
	out.CompetitorAnalysis.Competitors = append([]string(nil), s.CompetitorAnalysis.Competitors...)
	return &out
}
