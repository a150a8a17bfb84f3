// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"sentinel-moderation/internal/config"
	"sentinel-moderation/internal/domain/ports/adapter"
	aiAdapters "sentinel-moderation/internal/infra/adapters/ai"
	"sentinel-moderation/internal/infra/api"
	"sentinel-moderation/internal/infra/logging"
	"sentinel-moderation/internal/infra/metrics"
	"sentinel-moderation/internal/infra/web"
	"sentinel-moderation/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	envPath := flag.String("env", ".env", "optional dotenv file with API keys")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted text)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *envPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logging & metrics ----
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(cfg.Build.Version, cfg.Build.Commit)

	// ---- AI adapters (Gemini / OpenAI / Anthropic behind one router) ----
	byProvider := map[string]adapter.ClassifierAdapter{}
	if cfg.AI.GeminiKey != "" {
		model := cfg.AI.DefaultModel
		if cfg.AI.Provider != aiAdapters.ProviderGemini {
			model = config.DefaultModel
		}
		g, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, model, cfg.AI.MaxOutputTokens, nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		byProvider[aiAdapters.ProviderGemini] = g
		logger.Info().Str("model", model).Msg("AI adapter: Gemini")
	}
	if cfg.AI.OpenAIKey != "" {
		model := cfg.AI.DefaultModel
		if cfg.AI.Provider != aiAdapters.ProviderOpenAI {
			model = config.DefaultOpenAIModel
		}
		o, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, model, cfg.AI.OpenAIBaseURL, nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		byProvider[aiAdapters.ProviderOpenAI] = o
		logger.Info().Str("model", model).Str("base", cfg.AI.OpenAIBaseURL).Msg("AI adapter: OpenAI")
	}
	if cfg.AI.AnthropicKey != "" {
		model := cfg.AI.DefaultModel
		if cfg.AI.Provider != aiAdapters.ProviderAnthropic {
			model = config.DefaultAnthropicModel
		}
		a, err := aiAdapters.NewAnthropicAdapter(cfg.AI.AnthropicKey, model, cfg.AI.AnthropicBaseURL, nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("anthropic adapter")
		}
		byProvider[aiAdapters.ProviderAnthropic] = a
		logger.Info().Str("model", model).Msg("AI adapter: Anthropic")
	}
	router := aiAdapters.NewMultiClassifier(cfg.AI.Provider, byProvider, cfg.AI.Models)
	ai := aiAdapters.NewLimitedClassifier(router, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	classifyUC := usecase.NewClassifyUseCase(ai, usecase.ClassifyOptions{
		Model:   cfg.AI.DefaultModel,
		Timeout: cfg.AI.Timeout,
		Dev:     cfg.Runtime.Dev,
	}, logger)
	store := usecase.NewSessionStore(classifyUC, logger)
	statsUC := usecase.NewStatsUseCase(store)

	// ---- HTTP ----
	dashboard, err := web.NewServer(store, statsUC, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard templates")
	}
	r := chi.NewRouter()
	r.Use(
		api.Recover(logger),
		api.TraceID(),
		api.RequestLog(logger),
		api.Timeout(cfg.Server.RequestTimeout),
	)
	api.NewServer(store, statsUC, classifyUC, logger).Register(r)
	dashboard.Register(r)
	r.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("provider", cfg.AI.Provider).
			Str("model", cfg.AI.DefaultModel).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AI.Timeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
