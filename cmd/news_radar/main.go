package main

import (
	"context"
	"log"

	"github.com/iWorld-y/news_radar/pkg/agent"
	"github.com/iWorld-y/news_radar/pkg/config"
	"github.com/iWorld-y/news_radar/pkg/logger"
	"github.com/iWorld-y/news_radar/pkg/report"
	"github.com/iWorld-y/news_radar/pkg/search/factory"
	"github.com/iWorld-y/news_radar/pkg/storage"
	"github.com/iWorld-y/news_radar/pkg/vector"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("配置错误: %v", err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动新闻雷达...")

	ctx := context.Background()

	// 3. 初始化数据库连接（可选）
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 将仅生成 HTML 文件。", err)
		} else {
			store = s
			defer store.Close()
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过数据库连接")
	}

	// 4. 初始化搜索客户端
	searcher, err := factory.NewSearcher(cfg)
	if err != nil {
		logger.Log.Fatalf("搜索客户端初始化失败: %v", err)
	}

	// 5. 初始化语义扩展（可选）
	refiner, err := vector.NewRefiner(ctx, cfg)
	if err != nil {
		logger.Log.Warnf("语义扩展初始化失败，将使用基础关键词: %v", err)
		refiner = nil
	}

	// 6. 执行工作流
	workflow := agent.NewAgentWorkflow(cfg, searcher, refiner)
	result := workflow.ExecuteWorkflow(ctx)
	if !result.Success {
		logger.Log.Fatalf("工作流执行失败: %s", result.Error)
	}

	// 7. 持久化
	if store != nil {
		if runID, err := store.SaveRun(result.Data); err != nil {
			logger.Log.Errorf("保存工作流结果失败: %v", err)
		} else {
			logger.Log.Infof("工作流结果已保存 (run %d)", runID)
		}
	}

	// 8. 生成 HTML
	if err := report.WriteFile("output/index.html", result.Data); err != nil {
		logger.Log.Fatalf("生成 HTML 失败: %v", err)
	}

	logger.Log.Infof("✅ 新闻雷达日报生成完毕: output/index.html (接受 %d/%d 篇文章)",
		result.Data.Report.AcceptedArticles, result.Data.Report.TotalArticles)
}
