package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/api"
	"github.com/otc-triage-server/internal/config"
	"github.com/otc-triage-server/internal/dataset"
	"github.com/otc-triage-server/internal/paraphrase"
	"github.com/otc-triage-server/internal/service"
	"github.com/otc-triage-server/internal/session"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	store, err := newStore(logger, cfg.Dataset.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load condition catalogue")
	}

	triage, err := service.NewTriage(logger, store, cfg.Cache.EvaluateSize)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build triage engine")
	}

	sessions := session.NewManager(logger, cfg.Session)
	pp := paraphrase.NewClient(logger, cfg.Paraphrase)

	server := api.NewServer(cfg, logger, triage, sessions, pp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting OTC triage server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func newStore(logger *logrus.Logger, path string) (*dataset.Store, error) {
	if path == "" {
		return dataset.NewEmbeddedStore(logger)
	}
	return dataset.NewStoreFromFile(logger, path)
}

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
