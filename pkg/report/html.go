package report

import (
	"html/template"
	"io"
	"os"
	"time"

	"github.com/iWorld-y/news_radar/pkg/agent"
)

// digestData 用于模板渲染的数据
type digestData struct {
	Date string
	Data agent.WorkflowData
}

const digestTpl = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>News Radar | Daily Digest</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; line-height: 1.6; color: #1e293b; background: #f8fafc; }
        header { text-align: center; margin-bottom: 40px; }
        h1 { margin: 0 0 10px 0; }
        .meta { color: #64748b; }
        .section { background: #fff; border: 1px solid #e2e8f0; border-radius: 12px; padding: 24px; margin-bottom: 24px; }
        .section-title { font-size: 1.4rem; font-weight: 800; margin-bottom: 8px; }
        .score { background: #dcfce7; color: #166534; padding: 2px 10px; border-radius: 16px; font-size: 0.85em; }
        .article { border-top: 1px dashed #e2e8f0; padding: 12px 0; }
        .article a { color: #2563eb; text-decoration: none; font-weight: bold; }
        .article .src { color: #94a3b8; font-size: 0.85em; }
        .insights li { margin-bottom: 6px; }
        .competitor { background: #fef9c3; border-radius: 8px; padding: 12px 16px; margin-top: 10px; }
    </style>
</head>
<body>
    <header>
        <h1>📡 News Radar Digest</h1>
        <div class="meta">{{ .Date }} • {{ .Data.Report.AcceptedArticles }} of {{ .Data.Report.TotalArticles }} articles accepted</div>
    </header>

    {{range .Data.Report.Sections}}
    <div class="section">
        <div class="section-title">{{ .BusinessField }} <span class="score">avg {{ printf "%.2f" .AverageScore }}</span></div>
        <p>{{ .Summary }}</p>
        {{if .TopInsights}}
        <ul class="insights">
            {{range .TopInsights}}<li>{{ . }}</li>{{end}}
        </ul>
        {{end}}
        {{$field := .BusinessField}}
        {{range $.Data.Articles}}{{if eq .BusinessField $field}}
        <div class="article">
            <a href="{{ .SourceURL }}" target="_blank">{{ .Title }}</a>
            <span class="src">({{ .Source }}, score {{ printf "%.2f" .Relevance.Overall }})</span>
        </div>
        {{end}}{{end}}
    </div>
    {{end}}

    {{if .Data.CompetitorAnalysis}}
    <div class="section">
        <div class="section-title">🔎 Competitor Watch</div>
        {{range .Data.CompetitorAnalysis.Competitors}}
        <div class="competitor">
            <strong>{{ .CompetitorName }}</strong> — {{ .TotalMentions }} mention(s),
            sentiment {{ printf "%.2f" .AverageSentiment }}, position: {{ .MarketPosition }}
        </div>
        {{end}}
        {{if .Data.CompetitorAnalysis.Recommendations}}
        <ul class="insights">
            {{range .Data.CompetitorAnalysis.Recommendations}}<li>{{ . }}</li>{{end}}
        </ul>
        {{end}}
    </div>
    {{end}}
</body>
</html>
`

// Render 将一次工作流产出渲染为 HTML 摘要
func Render(w io.Writer, data agent.WorkflowData) error {
	t, err := template.New("digest").Parse(digestTpl)
	if err != nil {
		return err
	}
	return t.Execute(w, digestData{
		Date: time.Now().Format("2006-01-02"),
		Data: data,
	})
}

// WriteFile 渲染并写入文件
func WriteFile(path string, data agent.WorkflowData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Render(f, data)
}
