package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LucasNeuro/menogeo/internal/agent"
	"github.com/LucasNeuro/menogeo/internal/config"
	"github.com/LucasNeuro/menogeo/internal/core"
	"github.com/LucasNeuro/menogeo/internal/handoff"
	"github.com/LucasNeuro/menogeo/internal/history"
	"github.com/LucasNeuro/menogeo/internal/identity"
	"github.com/LucasNeuro/menogeo/internal/intent"
	"github.com/LucasNeuro/menogeo/internal/ixc"
	"github.com/LucasNeuro/menogeo/internal/llm"
	"github.com/LucasNeuro/menogeo/internal/megaapi"
	"github.com/LucasNeuro/menogeo/internal/queue"
	"github.com/LucasNeuro/menogeo/internal/webhook"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load configuration")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	ident := identity.NewStore(rdb, cfg.Session.BindingTTL, cfg.Session.GreetedTTL, cfg.Session.RecordTTL)
	hist := history.NewStore(rdb, cfg.Session.HistoryTTL, cfg.Session.HistoryPage)
	crm := ixc.NewClient(cfg.IXC, ident)
	transfer := handoff.NewClient(cfg.Handoff)
	registry := agent.NewRegistry(crm, transfer)

	responseModel, err := buildModel(ctx, cfg.LLM, modelParams{
		model:       cfg.LLM.ResponseModel,
		maxTokens:   cfg.LLM.ResponseMaxTokens,
		temperature: cfg.LLM.ResponseTemperature,
		tools:       registry.Specs(),
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build response model")
	}
	intentModel, err := buildModel(ctx, cfg.LLM, modelParams{
		model:     cfg.LLM.IntentModel,
		maxTokens: cfg.LLM.IntentMaxTokens,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build intent model")
	}

	svc := webhook.NewService(
		ident,
		hist,
		crm,
		intent.NewClassifier(intentModel),
		agent.NewOrchestrator(responseModel, registry, cfg.LLM.MaxToolRounds),
		megaapi.NewClient(cfg.MegaAPI),
		cfg.Session.ReplayWindow,
	)

	if cfg.Queue.Enabled {
		worker := queue.NewWorker(rdb, svc, cfg.Queue)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logx.Error().Err(err).Msg("queue worker stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           webhook.NewHandler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Int("port", cfg.Port).Str("environment", env.String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("shutdown incomplete")
	}
}

type modelParams struct {
	model       string
	maxTokens   int
	temperature float32
	tools       []llm.ToolSpec
}

// buildModel constructs a completion model for the configured provider.
func buildModel(ctx context.Context, cfg config.LLMConfig, p modelParams) (llm.CompletionModel, error) {
	switch cfg.Provider {
	case "openai":
		return llm.NewOpenAICompat(llm.OpenAICompatConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       p.model,
			Temperature: p.temperature,
			MaxTokens:   p.maxTokens,
			Tools:       p.tools,
		}), nil
	case "gemini":
		return llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			BaseURL:     cfg.GeminiBaseURL,
			Model:       p.model,
			Temperature: p.temperature,
			MaxTokens:   p.maxTokens,
			Tools:       p.tools,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
