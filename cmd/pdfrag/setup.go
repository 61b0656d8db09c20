package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/thywilljoshua/pdf-rag/internal/ai"
	"github.com/thywilljoshua/pdf-rag/internal/config"
	"github.com/thywilljoshua/pdf-rag/internal/store"
)

// loadConfig reads configuration and builds the logger. Errors here stop the
// command before any document is touched.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l, nil
}

// newDescriber wires the configured backends, rate limiter and optional
// caption cache. The returned cleanup func releases the cache connection.
func newDescriber(ctx context.Context, cfg *config.Config, log *logrus.Logger) (ai.Describer, func(), error) {
	noop := func() {}
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}
	limiter, err := ai.NewLimiter(cfg.Caption.RequestsPerMinute)
	if err != nil {
		return nil, noop, err
	}

	backends := map[string]ai.Backend{}
	for _, p := range cfg.Providers() {
		switch p {
		case "gemini":
			g, err := ai.NewGemini(ctx, cfg.GeminiAPIKey)
			if err != nil {
				return nil, noop, err
			}
			backends[p] = g
		case "openai":
			o, err := ai.NewOpenAICompat(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
			if err != nil {
				return nil, noop, err
			}
			backends[p] = o
		}
	}
	candidates, err := ai.ParseCandidates(cfg.Caption.Candidates, backends)
	if err != nil {
		return nil, noop, err
	}
	captioner, err := ai.NewCaptioner(candidates, ai.CaptionerOptions{
		Limiter:     limiter,
		MaxAttempts: cfg.Caption.MaxAttempts,
		BaseDelay:   cfg.Caption.BaseDelay,
		Logger:      log,
	})
	if err != nil {
		return nil, noop, err
	}
	log.WithFields(logrus.Fields{
		"candidates": cfg.Caption.Candidates,
		"interval":   limiter.Interval().String(),
	}).Debug("captioner ready")

	if cfg.Cache.DSN == "" {
		return captioner, noop, nil
	}
	db, err := store.Open(ctx, cfg.Cache.DSN)
	if err != nil {
		return nil, noop, err
	}
	repo := store.NewCaptionRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, noop, fmt.Errorf("caption cache schema: %w", err)
	}
	cached := &ai.CachedDescriber{Next: captioner, Store: repo, Logger: log}
	return cached, func() { db.Close() }, nil
}
