package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_radar/pkg/config"
	"github.com/iWorld-y/news_radar/pkg/model"
)

// mockRefiner 模拟语义扩展
type mockRefiner struct {
	refined map[model.BusinessField][]string
	err     error
	calls   int
}

func (m *mockRefiner) RefineKeywords(ctx context.Context, field model.BusinessField, base []string) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.refined[field], nil
}

func leaderSettings() *config.Settings {
	return &config.Settings{
		Branches: []config.BranchConfig{
			{Name: "Boden", BusinessField: "hpc"},
			{Name: "Texas", BusinessField: "bitcoin"},
			{Name: "Texas 2", BusinessField: "bitcoin"},
		},
		Keywords: []string{"supercomputer racks", "bitcoin mining", "battery storage", "quantum computing", "hash rate"},
	}
}

func TestEstablishScope_OneTaskPerDistinctField(t *testing.T) {
	leader := NewResearchLeader(leaderSettings(), nil)

	res := leader.EstablishScope(context.Background())
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 2)

	assert.Equal(t, model.BusinessFieldHPC, res.Data[0].BusinessField)
	assert.Equal(t, model.BusinessFieldBitcoin, res.Data[1].BusinessField)
	for _, task := range res.Data {
		assert.NotEmpty(t, task.ID)
		assert.Equal(t, model.TaskStatusPending, task.Status)
	}
}

func TestEstablishScope_KeywordsFilteredPerField(t *testing.T) {
	leader := NewResearchLeader(leaderSettings(), nil)

	res := leader.EstablishScope(context.Background())
	require.True(t, res.Success)

	global := map[string]struct{}{}
	for _, kw := range leaderSettings().Keywords {
		global[kw] = struct{}{}
	}

	hpc := res.Data[0]
	assert.ElementsMatch(t, []string{"supercomputer racks", "quantum computing"}, hpc.Keywords)

	btc := res.Data[1]
	assert.ElementsMatch(t, []string{"bitcoin mining", "hash rate"}, btc.Keywords)

	// 任务关键词必须是全局关键词的子集
	for _, task := range res.Data {
		for _, kw := range task.Keywords {
			_, ok := global[kw]
			assert.True(t, ok, "keyword %q not in global list", kw)
		}
	}
}

func TestEstablishScope_EmptyBranchesFails(t *testing.T) {
	leader := NewResearchLeader(&config.Settings{}, nil)

	res := leader.EstablishScope(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "branches")
}

func TestEstablishScope_UnknownFieldFails(t *testing.T) {
	cfg := &config.Settings{
		Branches: []config.BranchConfig{{Name: "X", BusinessField: "aerospace"}},
	}
	leader := NewResearchLeader(cfg, nil)

	res := leader.EstablishScope(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown business field")
}

func TestEstablishScope_RefinerFailureFallsBack(t *testing.T) {
	cfg := leaderSettings()
	cfg.VectorSearch.Enabled = true
	refiner := &mockRefiner{err: fmt.Errorf("vector service unavailable")}
	leader := NewResearchLeader(cfg, refiner)

	res := leader.EstablishScope(context.Background())
	require.True(t, res.Success, "refiner failure must not fail the stage")
	assert.Equal(t, 2, refiner.calls)
	assert.ElementsMatch(t, []string{"supercomputer racks", "quantum computing"}, res.Data[0].Keywords)
}

func TestEstablishScope_RefinerExpandsKeywords(t *testing.T) {
	cfg := leaderSettings()
	cfg.VectorSearch.Enabled = true
	refiner := &mockRefiner{refined: map[model.BusinessField][]string{
		model.BusinessFieldHPC: {"exascale systems"},
	}}
	leader := NewResearchLeader(cfg, refiner)

	res := leader.EstablishScope(context.Background())
	require.True(t, res.Success)
	assert.Contains(t, res.Data[0].Keywords, "exascale systems")
	assert.Contains(t, res.Data[0].Keywords, "supercomputer racks")
}

func TestEstablishScope_VectorDisabledSkipsRefiner(t *testing.T) {
	refiner := &mockRefiner{}
	leader := NewResearchLeader(leaderSettings(), refiner)

	res := leader.EstablishScope(context.Background())
	require.True(t, res.Success)
	assert.Zero(t, refiner.calls)
}
