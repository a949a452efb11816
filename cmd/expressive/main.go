package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/idempomlieko/expressive/internal/api"
	"github.com/idempomlieko/expressive/internal/biz/usecase"
	"github.com/idempomlieko/expressive/internal/conf"
	"github.com/idempomlieko/expressive/internal/data"
	"github.com/idempomlieko/expressive/internal/infra/feishu"
	"github.com/idempomlieko/expressive/internal/server"
	"github.com/idempomlieko/expressive/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Initialize clients
	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)

	// Initialize repository layer
	repos, err := data.NewRepositories(feishuClient, cfg.Storage.DBPath, cfg.Defaults.LogDefaults())
	if err != nil {
		logrus.Fatalf("failed to create repositories: %v", err)
	}
	defer repos.Document.Close()

	logrus.Infof("document DB: %s", cfg.Storage.DBPath)

	// Initialize usecase layer
	cooldowns := usecase.NewCooldownTracker()
	dispatchUC := usecase.NewDispatchUsecase(repos.Document, repos.Message, cooldowns)

	expressionUC := usecase.NewExpressionUsecase(repos.Document)
	expressionUC.SetNotifier(service.NewAuditNotifier(repos.Document, repos.Message))

	// Start the admin HTTP API used by expressive-mcp
	apiServer := api.NewServer(expressionUC, cfg.API.Port)
	go func() {
		if err := apiServer.Start(); err != nil {
			logrus.Errorf("API server error: %v", err)
		}
	}()

	// Initialize server
	srv := server.NewFeishuServer(feishuClient, dispatchUC, cfg.DedupWindow())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logrus.Info("shutting down")
		srv.Stop()
		apiServer.Stop()
		repos.Document.Close()
		os.Exit(0)
	}()

	logrus.Info("starting Expressive")
	if err := srv.Start(); err != nil {
		logrus.Fatalf("server error: %v", err)
	}
}
