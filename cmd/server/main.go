package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/dimiro1/banner"
	"github.com/joho/godotenv"
	"github.com/mattn/go-colorable"
	"github.com/quantumchain-labs/quantumchain/internal/api"
	"github.com/quantumchain-labs/quantumchain/internal/assistant"
	"github.com/quantumchain-labs/quantumchain/internal/chain"
	"github.com/quantumchain-labs/quantumchain/internal/config"
	"github.com/quantumchain-labs/quantumchain/internal/history"
	"github.com/quantumchain-labs/quantumchain/internal/jobs"
	"github.com/quantumchain-labs/quantumchain/internal/notifications"
	"github.com/quantumchain-labs/quantumchain/internal/provider"
	"github.com/quantumchain-labs/quantumchain/internal/reports"
	"github.com/sirupsen/logrus"
)

const bannerText = `
{{ .Title "QuantumChain" "" 0 }}
{{ .AnsiBackground.BrightBlue }}{{ .AnsiColor.White }}
{{ .AnsiReset }}
`

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Printf("No .env or .env.local file found. Using environment variables.\n")
		}
	}

	banner.Init(colorable.NewColorableStdout(), true, true, strings.NewReader(bannerText))

	configPath := flag.String("config", "config/config.json", "path to config file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          false,
		DisableTimestamp:       false,
		TimestampFormat:        "2006-01-02T15:04:05-07:00",
		DisableLevelTruncation: false,
		PadLevelText:           false,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	providers, err := config.LoadProviders()
	if err != nil {
		logger.Warnf("Failed to load provider catalog, using defaults: %v", err)
	}
	catalog := provider.NewCatalog(logger, providers)

	stats := chain.NewStats(logger)
	explorer := chain.NewExplorerClient(logger, cfg.Explorer.BaseURL, cfg.Explorer.APIKey)

	slack, err := notifications.NewSlackService(logger)
	if err != nil {
		logger.Warnf("Failed to initialize Slack service: %v", err)
	}

	jobOpts := []jobs.Option{}
	var historySource api.HistorySource
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(logger, cfg.History.Path)
		if err != nil {
			// Jobs keep flowing without persistence
			logger.Warnf("Failed to open history store, execution log disabled: %v", err)
		} else {
			defer store.Close()
			jobOpts = append(jobOpts, jobs.WithRecorder(store))
			historySource = store
		}
	}
	if slack != nil {
		jobOpts = append(jobOpts, jobs.WithNotifier(slack))
	}

	store := jobs.NewStore(logger, cfg.Jobs.MaxConcurrent, cfg.Jobs.DefaultShots, cfg.Jobs.MaxShots, jobOpts...)

	var llm assistant.LLM
	if cfg.Assistant.APIKey != "" {
		llm = assistant.NewOpenAIClient(cfg.Assistant.APIKey, cfg.Assistant.BaseURL, cfg.Assistant.Model)
	} else {
		logger.Info("No assistant API key configured, canned answers only")
	}

	handler := api.NewHandler(logger, cfg, api.Deps{
		Jobs:      store,
		Templates: jobs.NewTemplateStore(),
		Catalog:   catalog,
		Stats:     stats,
		Explorer:  explorer,
		Assistant: assistant.New(logger, llm),
		Reports:   reports.NewStore(logger),
		History:   historySource,
	})

	startupNotifier := notifications.NewStartupNotifier(catalog.List(), slack, logger)
	go startupNotifier.NotifyStartup()

	if err := handler.Scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	logger.Infof("Server started on port %s - Press Ctrl+C to stop.", cfg.Server.Port)

	if err := api.StartServer(context.Background(), handler, cfg.Server.Port); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}

	logger.Info("Server stopped")
}
