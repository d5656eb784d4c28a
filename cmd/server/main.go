package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/0xPuncker/cron-console/internal/api"
	"github.com/0xPuncker/cron-console/internal/config"
	"github.com/0xPuncker/cron-console/internal/gateway"
	"github.com/0xPuncker/cron-console/internal/metrics"
	"github.com/0xPuncker/cron-console/internal/notifications"
	"github.com/dimiro1/banner"
	"github.com/joho/godotenv"
	"github.com/mattn/go-colorable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const bannerText = `
{{ .Title "Cron Console" "" 0 }}
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
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05-07:00",
	})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	channels, err := config.LoadChannelConfig(cfg.UI.ChannelsFile)
	if err != nil {
		logger.Warnf("No channels file loaded, only %q is offered: %v", "last", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(metrics.Namespace, registry)

	client, err := gateway.NewClientFromConfig(cfg.Gateway, logger, m)
	if err != nil {
		logger.Fatalf("Failed to create gateway client: %v", err)
	}
	defer client.Close()

	logger.WithFields(logrus.Fields{
		"gateway":   cfg.Gateway.URL,
		"transport": cfg.Gateway.Transport,
	}).Info("Gateway client ready")

	var auditor *notifications.AuditNotifier
	slack, err := notifications.NewSlackService(logger, cfg.Slack.WebhookURL)
	if err != nil {
		logger.Infof("Slack audit disabled: %v", err)
	} else {
		auditor = notifications.NewAuditNotifier(slack, logger, cfg.Location())
	}

	handler, err := api.NewHandler(api.Deps{
		Gateway:  client,
		Logger:   logger,
		Config:   cfg,
		Channels: channels,
		Metrics:  m,
		Auditor:  auditor,
	})
	if err != nil {
		logger.Fatalf("Failed to create handler: %v", err)
	}

	if err := handler.Scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer handler.Scheduler.Stop()

	router := api.NewRouter(handler, registry)

	logger.Infof("Server started on port %s - Press Ctrl+C to stop.", cfg.Server.Port)

	if err := api.StartServer(context.Background(), handler, router, cfg.Server); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
		return
	}

	logger.Info("Server stopped")
}
