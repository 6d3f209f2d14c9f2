package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iWorld-y/news_radar/pkg/config"
	"github.com/iWorld-y/news_radar/pkg/logger"
	"github.com/iWorld-y/news_radar/pkg/model"
	"github.com/iWorld-y/news_radar/pkg/vector"
)

// fieldVocabulary 各业务领域的固定种子词表，用于关键词归属判定
var fieldVocabulary = map[model.BusinessField][]string{
	model.BusinessFieldHPC:           {"computing", "supercomputer", "processor", "quantum", "performance"},
	model.BusinessFieldBitcoin:       {"mining", "cryptocurrency", "blockchain", "hash", "power"},
	model.BusinessFieldEnergyStorage: {"battery", "renewable", "grid", "storage", "efficiency"},
}

// ResearchLeaderAgent 将全局配置转化为按领域划分的研究任务
type ResearchLeaderAgent struct {
	settings *config.Settings
	refiner  vector.Refiner
}

// NewResearchLeader 创建 ResearchLeader
// refiner 可为 nil，表示未配置语义扩展。
func NewResearchLeader(settings *config.Settings, refiner vector.Refiner) *ResearchLeaderAgent {
	return &ResearchLeaderAgent{settings: settings, refiner: refiner}
}

// EstablishScope 为每个出现过的业务领域生成一个研究任务
// 任务关键词为全局关键词按领域词表过滤的结果；启用向量检索时做尽力而为的
// 语义扩展，扩展失败只降级不失败。
func (a *ResearchLeaderAgent) EstablishScope(ctx context.Context) (res Result[[]model.ResearchTask]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failf[[]model.ResearchTask]("scope definition panicked: %v", r)
		}
	}()

	if len(a.settings.Branches) == 0 {
		return Failf[[]model.ResearchTask]("no company branches configured")
	}

	fields, err := distinctFields(a.settings.Branches)
	if err != nil {
		return Fail[[]model.ResearchTask](err)
	}

	tasks := make([]model.ResearchTask, 0, len(fields))
	for _, field := range fields {
		keywords := filterKeywords(a.settings.Keywords, field)

		if a.settings.VectorSearch.Enabled && a.refiner != nil {
			refined, err := a.refiner.RefineKeywords(ctx, field, keywords)
			if err != nil {
				logger.Log.Warnf("semantic refinement failed for field [%s], falling back to base keywords: %v", field, err)
			} else {
				keywords = append(keywords, refined...)
			}
		}

		tasks = append(tasks, model.ResearchTask{
			ID:            uuid.NewString(),
			BusinessField: field,
			Keywords:      keywords,
			Status:        model.TaskStatusPending,
		})
	}

	logger.Log.Infof("scope established: %d research tasks", len(tasks))
	return OK(tasks)
}

// distinctFields 按分支配置顺序去重领域
func distinctFields(branches []config.BranchConfig) ([]model.BusinessField, error) {
	seen := make(map[model.BusinessField]struct{}, len(branches))
	var fields []model.BusinessField
	for _, b := range branches {
		field, err := model.ParseBusinessField(b.BusinessField)
		if err != nil {
			return nil, fmt.Errorf("branch %q: %w", b.Name, err)
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		fields = append(fields, field)
	}
	return fields, nil
}

// filterKeywords 保留与领域词表存在大小写不敏感子串关系的全局关键词
func filterKeywords(keywords []string, field model.BusinessField) []string {
	vocab := fieldVocabulary[field]
	var out []string
	for _, kw := range keywords {
		lower := strings.ToLower(kw)
		for _, term := range vocab {
			if strings.Contains(lower, term) || strings.Contains(term, lower) {
				out = append(out, kw)
				break
			}
		}
	}
	return out
}
