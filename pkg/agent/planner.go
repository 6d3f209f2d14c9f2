package agent

import (
	"sort"

	"github.com/iWorld-y/news_radar/pkg/logger"
	"github.com/iWorld-y/news_radar/pkg/model"
)

// TaskPriority 任务排序模式
type TaskPriority string

const (
	// PriorityBalanced 按固定领域顺序 (hpc, bitcoin, energy_storage) 排列
	PriorityBalanced TaskPriority = "balanced"
	// PriorityDepth 关键词少的任务优先：窄任务先做完、先暴露问题
	PriorityDepth TaskPriority = "depth"
	// PriorityBreadth 关键词多的任务优先：先覆盖最宽的面
	PriorityBreadth TaskPriority = "breadth"
)

// ParseTaskPriority 解析排序模式，未知值回退 balanced
func ParseTaskPriority(s string) TaskPriority {
	switch TaskPriority(s) {
	case PriorityDepth, PriorityBreadth:
		return TaskPriority(s)
	}
	return PriorityBalanced
}

// ProjectPlannerAgent 将任务列表排序并切分为受控并行的批次
type ProjectPlannerAgent struct {
	maxParallelTasks int
	priority         TaskPriority
}

// NewProjectPlanner 创建 Planner
func NewProjectPlanner(maxParallelTasks int, priority TaskPriority) *ProjectPlannerAgent {
	return &ProjectPlannerAgent{maxParallelTasks: maxParallelTasks, priority: priority}
}

// PlanResearch 排序后按 maxParallelTasks 切批
// 所有批次拼接后恰好覆盖输入一次，批内保持排序后的顺序。
func (a *ProjectPlannerAgent) PlanResearch(tasks []model.ResearchTask) (res Result[[][]model.ResearchTask]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failf[[][]model.ResearchTask]("research planning panicked: %v", r)
		}
	}()

	if a.maxParallelTasks <= 0 {
		return Failf[[][]model.ResearchTask]("max parallel tasks must be positive, got %d", a.maxParallelTasks)
	}

	ordered := make([]model.ResearchTask, len(tasks))
	copy(ordered, tasks)
	a.order(ordered)

	var batches [][]model.ResearchTask
	for start := 0; start < len(ordered); start += a.maxParallelTasks {
		end := start + a.maxParallelTasks
		if end > len(ordered) {
			end = len(ordered)
		}
		batches = append(batches, ordered[start:end])
	}

	logger.Log.Infof("research plan: %d tasks in %d batches (priority=%s)", len(ordered), len(batches), a.priority)
	return OK(batches)
}

// order 按模式施加全序；sort.SliceStable 以输入位置作为并列时的决胜依据
func (a *ProjectPlannerAgent) order(tasks []model.ResearchTask) {
	switch a.priority {
	case PriorityDepth:
		sort.SliceStable(tasks, func(i, j int) bool {
			return len(tasks[i].Keywords) < len(tasks[j].Keywords)
		})
	case PriorityBreadth:
		sort.SliceStable(tasks, func(i, j int) bool {
			return len(tasks[i].Keywords) > len(tasks[j].Keywords)
		})
	default:
		rank := make(map[model.BusinessField]int, len(model.AllBusinessFields))
		for i, f := range model.AllBusinessFields {
			rank[f] = i
		}
		sort.SliceStable(tasks, func(i, j int) bool {
			return rank[tasks[i].BusinessField] < rank[tasks[j].BusinessField]
		})
	}
}
