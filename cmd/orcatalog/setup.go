package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/everstacklabs/orcatalog/internal/cache"
	"github.com/everstacklabs/orcatalog/internal/config"
	"github.com/everstacklabs/orcatalog/internal/httpclient"
	"github.com/everstacklabs/orcatalog/internal/openrouter"
	"github.com/everstacklabs/orcatalog/internal/pipeline"
)

var closers []func()

// exit runs deferred cleanups before terminating with code.
func exit(code int) {
	cleanup()
	os.Exit(code)
}

func cleanup() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
		}
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		closers = append(closers, func() { f.Close() })
		w = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func openCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	var store cache.Store
	switch cfg.CacheBackend {
	case config.BackendRedis:
		rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { rs.Close() })
		store = rs
	default:
		store = cache.NewFileStore(cfg.CacheDir)
	}
	return cache.New(store, cfg.CacheTTLDuration()), nil
}

func newAPIClient(cfg *config.Config) (*openrouter.Client, error) {
	if err := cfg.ValidateFetch(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	hc := httpclient.New(
		httpclient.WithTimeout(cfg.TimeoutDuration()),
		httpclient.WithRetry(cfg.MaxRetries, 0),
		httpclient.WithRateLimit(cfg.RateLimit),
	)
	return openrouter.New(openrouter.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		AppName: cfg.AppName,
		AppURL:  cfg.AppURL,
	}, hc), nil
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, error) {
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, err
	}
	c, err := openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, pipeline.NewRetriever(c, client)), nil
}
