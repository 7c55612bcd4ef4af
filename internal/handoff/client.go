// Package handoff notifies the human-operator webhook when a conversation
// must leave the bot.
package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/LucasNeuro/menogeo/internal/config"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// ConfirmationMessage is what the customer sees once the transfer is queued.
const ConfirmationMessage = "⚠️ Encaminhei sua conversa para um atendente humano. Você será respondido em breve."

// Result is the structured outcome fed back into the tool loop.
type Result struct {
	Status string `json:"status,omitempty"`
	Erro   string `json:"erro,omitempty"`
}

// Client posts conversation summaries to the handoff webhook.
type Client struct {
	cfg  config.HandoffConfig
	http *http.Client
}

func NewClient(cfg config.HandoffConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Transfer sends {cpf, resumo} to the webhook. Failures come back structured
// so the tool loop can tell the customer instead of crashing the request.
func (c *Client) Transfer(ctx context.Context, cpf, resumo string) *Result {
	if c.cfg.URL == "" {
		return &Result{Erro: "webhook de atendimento não configurado"}
	}

	body, err := json.Marshal(map[string]string{"cpf": cpf, "resumo": resumo})
	if err != nil {
		return &Result{Erro: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return &Result{Erro: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logx.Error().Err(err).Msg("handoff webhook failed")
		return &Result{Erro: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &Result{Erro: fmt.Sprintf("webhook respondeu %d", resp.StatusCode)}
	}
	return &Result{Status: "encaminhado_humano"}
}
