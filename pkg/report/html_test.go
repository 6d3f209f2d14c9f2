package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_radar/pkg/agent"
	"github.com/iWorld-y/news_radar/pkg/model"
)

func sampleData() agent.WorkflowData {
	return agent.WorkflowData{
		Articles: []model.Article{
			{
				ID:            "a1",
				Title:         "Quantum cluster goes online",
				Source:        "example.com",
				SourceURL:     "https://example.com/quantum",
				BusinessField: model.BusinessFieldHPC,
				Relevance:     model.RelevanceScores{Overall: 4.2},
			},
		},
		Report: model.CompiledReport{
			TotalArticles:    3,
			AcceptedArticles: 1,
			Sections: []model.FieldSection{
				{
					BusinessField: model.BusinessFieldHPC,
					ArticleCount:  1,
					AverageScore:  4.2,
					Summary:       "1 articles curated for hpc",
					TopInsights:   []string{"Quantum cluster goes online"},
				},
			},
		},
	}
}

func TestRender_ContainsSectionsAndArticles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleData()))

	html := buf.String()
	assert.Contains(t, html, "News Radar Digest")
	assert.Contains(t, html, "1 of 3 articles accepted")
	assert.Contains(t, html, "hpc")
	assert.Contains(t, html, "Quantum cluster goes online")
	assert.Contains(t, html, `href="https://example.com/quantum"`)
	assert.Contains(t, html, "avg 4.20")
	// 无竞品数据时不渲染竞品分区
	assert.NotContains(t, html, "Competitor Watch")
}

func TestRender_CompetitorSection(t *testing.T) {
	data := sampleData()
	data.CompetitorAnalysis = &model.CompetitorAnalysisReport{
		Competitors: []model.CompetitorStats{
			{CompetitorName: "Core Scientific", TotalMentions: 4, AverageSentiment: 0.5, MarketPosition: "established"},
		},
		Recommendations: []string{"Core Scientific is receiving strongly positive coverage"},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, data))

	html := buf.String()
	assert.Contains(t, html, "Competitor Watch")
	assert.Contains(t, html, "Core Scientific")
	assert.Contains(t, html, "4 mention(s)")
	assert.Contains(t, html, "sentiment 0.50")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.html")
	require.NoError(t, WriteFile(path, sampleData()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "News Radar Digest")
}
