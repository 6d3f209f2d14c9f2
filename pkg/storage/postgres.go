package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/news_radar/pkg/agent"
	"github.com/iWorld-y/news_radar/pkg/config"
	"github.com/iWorld-y/news_radar/pkg/model"
)

// Storage 工作流结果的 PostgreSQL 持久化
type Storage struct {
	db *sql.DB
}

// NewStorage 建立数据库连接并初始化表结构
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS workflow_runs (
			id SERIAL PRIMARY KEY,
			total_articles INTEGER,
			accepted_articles INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES workflow_runs(id),
			article_id TEXT,
			title TEXT,
			source TEXT,
			source_url TEXT,
			pub_date TIMESTAMP,
			business_field TEXT,
			score_technical DOUBLE PRECISION,
			score_business DOUBLE PRECISION,
			score_sustainability DOUBLE PRECISION,
			score_overall DOUBLE PRECISION,
			content TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS report_sections (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES workflow_runs(id),
			business_field TEXT,
			article_count INTEGER,
			average_score DOUBLE PRECISION,
			summary TEXT,
			top_insights TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS competitor_stats (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES workflow_runs(id),
			competitor_name TEXT,
			total_mentions INTEGER,
			average_sentiment DOUBLE PRECISION,
			market_position TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS competitor_mentions (
			id SERIAL PRIMARY KEY,
			run_id INTEGER REFERENCES workflow_runs(id),
			mention_id TEXT,
			competitor_name TEXT,
			article_id TEXT,
			sentiment TEXT,
			context TEXT,
			market_position TEXT,
			mentioned_at TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun 保存一次工作流执行的全部产出，返回 run ID
func (s *Storage) SaveRun(data agent.WorkflowData) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}

	var runID int
	err = tx.QueryRow(
		`INSERT INTO workflow_runs (total_articles, accepted_articles) VALUES ($1, $2) RETURNING id`,
		data.Report.TotalArticles, data.Report.AcceptedArticles,
	).Scan(&runID)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	for _, art := range data.Articles {
		_, err := tx.Exec(
			`INSERT INTO articles (run_id, article_id, title, source, source_url, pub_date, business_field,
				score_technical, score_business, score_sustainability, score_overall, content)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			runID, art.ID, art.Title, art.Source, art.SourceURL, art.PublicationDate, string(art.BusinessField),
			art.Relevance.Technical, art.Relevance.Business, art.Relevance.Sustainability, art.Relevance.Overall,
			removeNullBytes(art.Content),
		)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	for _, section := range data.Report.Sections {
		_, err := tx.Exec(
			`INSERT INTO report_sections (run_id, business_field, article_count, average_score, summary, top_insights)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, string(section.BusinessField), section.ArticleCount, section.AverageScore,
			section.Summary, strings.Join(section.TopInsights, "\n"),
		)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	if data.CompetitorAnalysis != nil {
		if err := saveCompetitorReport(tx, runID, data.CompetitorAnalysis); err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	return runID, tx.Commit()
}

func saveCompetitorReport(tx *sql.Tx, runID int, report *model.CompetitorAnalysisReport) error {
	for _, stats := range report.Competitors {
		_, err := tx.Exec(
			`INSERT INTO competitor_stats (run_id, competitor_name, total_mentions, average_sentiment, market_position)
			 VALUES ($1, $2, $3, $4, $5)`,
			runID, stats.CompetitorName, stats.TotalMentions, stats.AverageSentiment, stats.MarketPosition,
		)
		if err != nil {
			return err
		}

		for _, m := range stats.RecentMentions {
			_, err := tx.Exec(
				`INSERT INTO competitor_mentions (run_id, mention_id, competitor_name, article_id, sentiment, context, market_position, mentioned_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				runID, m.ID, m.CompetitorName, m.ArticleID, string(m.Sentiment),
				removeNullBytes(m.Context), m.MarketPosition, m.Timestamp,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// removeNullBytes PostgreSQL 文本字段不支持 NULL 字节
func removeNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
