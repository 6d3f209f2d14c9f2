package agent

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/news_radar/pkg/config"
	"github.com/iWorld-y/news_radar/pkg/logger"
	"github.com/iWorld-y/news_radar/pkg/model"
	"github.com/iWorld-y/news_radar/pkg/search"
	"github.com/iWorld-y/news_radar/pkg/vector"
)

// WorkflowData 一次完整执行的产出
type WorkflowData struct {
	Articles           []model.Article                 `json:"articles"`
	Report             model.CompiledReport            `json:"report"`
	CompetitorAnalysis *model.CompetitorAnalysisReport `json:"competitor_analysis,omitempty"`
	Tasks              []model.ResearchTask            `json:"tasks"`
}

// AgentWorkflow 编排器：scope → plan → research → edit → competitor analysis
// 构造时对配置取防御性快照，快照在一次执行期间不可变。
type AgentWorkflow struct {
	settings   *config.Settings
	leader     *ResearchLeaderAgent
	planner    *ProjectPlannerAgent
	assistants []*ResearchAssistantAgent
	editor     *EditorAgent

	competitorOpts []CompetitorOption
}

// WorkflowOption 编排器可选参数
type WorkflowOption func(*workflowConfig)

type workflowConfig struct {
	assistantOpts  []AssistantOption
	editorOpts     []EditorOption
	competitorOpts []CompetitorOption
}

// WithAssistantOptions 透传给池中每个 Assistant
func WithAssistantOptions(opts ...AssistantOption) WorkflowOption {
	return func(c *workflowConfig) { c.assistantOpts = append(c.assistantOpts, opts...) }
}

// WithEditorOptions 透传给 Editor
func WithEditorOptions(opts ...EditorOption) WorkflowOption {
	return func(c *workflowConfig) { c.editorOpts = append(c.editorOpts, opts...) }
}

// WithCompetitorOptions 透传给竞品分析 agent
func WithCompetitorOptions(opts ...CompetitorOption) WorkflowOption {
	return func(c *workflowConfig) { c.competitorOpts = append(c.competitorOpts, opts...) }
}

// NewAgentWorkflow 构建编排器及其全部协作 agent
func NewAgentWorkflow(settings *config.Settings, searcher search.Searcher, refiner vector.Refiner, opts ...WorkflowOption) *AgentWorkflow {
	var wc workflowConfig
	for _, opt := range opts {
		opt(&wc)
	}

	snapshot := settings.Clone()
	snapshot.ApplyDefaults()

	assistantOpts := append([]AssistantOption{
		WithTaskTimeout(time.Duration(snapshot.Workflow.TaskTimeoutSeconds) * time.Second),
	}, wc.assistantOpts...)

	assistants := make([]*ResearchAssistantAgent, snapshot.Workflow.PoolSize)
	for i := range assistants {
		assistants[i] = NewResearchAssistant(
			fmt.Sprintf("assistant-%d", i+1),
			searcher,
			snapshot.Workflow.AutoRetry,
			snapshot.TimeframeDays,
			assistantOpts...,
		)
	}

	return &AgentWorkflow{
		settings:   snapshot,
		assistants: assistants,
		leader:     NewResearchLeader(snapshot, refiner),
		planner:    NewProjectPlanner(snapshot.Workflow.MaxParallelTasks, ParseTaskPriority(snapshot.Workflow.TaskPriority)),
		editor: NewEditor(snapshot.RelevanceWeights, snapshot.MinimumScore, ScoringConfig{
			PriorityKeywords:  snapshot.PriorityKeywords,
			ExclusionKeywords: snapshot.ExclusionKeywords,
		}, wc.editorOpts...),
		competitorOpts: wc.competitorOpts,
	}
}

// ExecuteWorkflow 执行一次完整的流水线
// scope/plan/edit 失败中止整个工作流；单任务研究失败只丢失其文章；
// 竞品分析失败仅告警，结果中不附带竞品字段。
func (w *AgentWorkflow) ExecuteWorkflow(ctx context.Context) (res Result[WorkflowData]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failf[WorkflowData]("workflow panicked: %v", r)
		}
	}()

	// 1. Scope
	scopeRes := w.leader.EstablishScope(ctx)
	if !scopeRes.Success {
		return Failf[WorkflowData]("scope definition failed: %s", scopeRes.Error)
	}

	// 2. Plan
	planRes := w.planner.PlanResearch(scopeRes.Data)
	if !planRes.Success {
		return Failf[WorkflowData]("research planning failed: %s", planRes.Error)
	}

	// 3. Research：批次串行，批内并行
	executed, articles, err := w.runResearch(ctx, planRes.Data)
	if err != nil {
		return Fail[WorkflowData](err)
	}

	// 4. Edit
	editRes := w.editor.CompileReport(articles)
	if !editRes.Success {
		return Failf[WorkflowData]("editorial compilation failed: %s", editRes.Error)
	}

	data := WorkflowData{
		Articles: editRes.Data.Articles,
		Report:   editRes.Data.Report,
		Tasks:    executed,
	}

	// 5. Competitor analysis（可选、非致命）
	if w.settings.CompetitorAnalysis.Enabled {
		end := time.Now()
		start := end.AddDate(0, 0, -w.settings.TimeframeDays)
		analyst := NewCompetitorAnalysis(
			w.settings.CompetitorAnalysis.Competitors,
			w.settings.CompetitorAnalysis.MinMentionsThreshold,
			start, end,
			w.competitorOpts...,
		)
		compRes := analyst.AnalyzeArticles(data.Articles)
		if compRes.Success {
			report := compRes.Data.Report
			data.CompetitorAnalysis = &report
		} else {
			logger.Log.Warnf("competitor analysis failed, continuing without it: %s", compRes.Error)
		}
	}

	return OK(data)
}

// queueItem 批内任务及其原始位置，用于保持文章的批内顺序
type queueItem struct {
	index int
	task  model.ResearchTask
}

// runResearch 逐批执行研究任务
// 每批按下标轮转分配到池中的 worker；批大小超过池容量时 worker 串行
// 消化自己的队列。单任务失败不中止批次，只记为 failed。
func (w *AgentWorkflow) runResearch(ctx context.Context, batches [][]model.ResearchTask) ([]model.ResearchTask, []model.Article, error) {
	var executed []model.ResearchTask
	var articles []model.Article

	for bi, batch := range batches {
		logger.Log.Infof("executing batch %d/%d (%d tasks)", bi+1, len(batches), len(batch))

		queues := make([][]queueItem, len(w.assistants))
		for idx, task := range batch {
			wi := idx % len(w.assistants)
			queues[wi] = append(queues[wi], queueItem{index: idx, task: task})
		}

		results := make([]model.ResearchTask, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for wi, queue := range queues {
			if len(queue) == 0 {
				continue
			}
			assistant := w.assistants[wi]
			queue := queue
			g.Go(func() error {
				for _, item := range queue {
					if err := gctx.Err(); err != nil {
						return err
					}
					task := item.task
					task.Status = model.TaskStatusInProgress

					taskRes := assistant.PerformResearch(gctx, task)
					if taskRes.Success {
						task.Status = model.TaskStatusCompleted
						task.Results = taskRes.Data
					} else {
						task.Status = model.TaskStatusFailed
						logger.Log.Warnf("task %s (%s) failed: %s", task.ID, task.BusinessField, taskRes.Error)
					}
					results[item.index] = task
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, fmt.Errorf("research stage aborted: %w", err)
		}

		// 按批内任务顺序收集文章，保证批 k 的文章先于批 k+1
		for _, task := range results {
			executed = append(executed, task)
			if task.Status == model.TaskStatusCompleted {
				articles = append(articles, task.Results...)
			}
		}
	}

	logger.Log.Infof("research complete: %d articles collected from %d tasks", len(articles), len(executed))
	return executed, articles, nil
}
