package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// GeminiConfig parameterizes one Gemini chat model.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Tools       []ToolSpec
}

// Gemini backs CompletionModel with a Google Gemini chat model.
type Gemini struct {
	cm    *gemini.ChatModel
	model string
}

// NewGemini builds the Gemini client and chat model and binds tools when given.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.Model).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	if len(cfg.Tools) > 0 {
		if err := cm.BindTools(Infos(cfg.Tools)); err != nil {
			logx.Error().Err(err).Msg("Failed to bind tools")
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	return &Gemini{cm: cm, model: cfg.Model}, nil
}

func (g *Gemini) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	out, err := g.cm.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}
	logUsage(g.model, out)
	return out, nil
}

var _ CompletionModel = (*Gemini)(nil)
