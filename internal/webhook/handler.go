package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// maxBodySize bounds webhook payloads; MegaAPI text events are tiny.
const maxBodySize = 1 << 20

// NewHandler exposes the webhook endpoint and the health probe.
func NewHandler(svc *Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", recovered(handleWebhook(svc)))
	mux.HandleFunc("GET /healthz", handleHealth)
	return mux
}

func handleWebhook(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": "erro", "erro": "corpo ilegível"})
			return
		}

		msg, ignoreReason, err := Extract(body)
		if err != nil {
			if ignoreReason != "" {
				logx.Debug().Str("reason", ignoreReason).Msg("event ignored")
				writeJSON(w, http.StatusOK, map[string]any{"status": "ignored", "reason": ignoreReason})
				return
			}
			// The echoed payload makes gateway configuration mistakes
			// visible from the gateway's own delivery logs.
			logx.Warn().Msg("malformed webhook payload")
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"status":  "erro",
				"erro":    ErrMalformed.Error(),
				"payload": string(body),
			})
			return
		}

		status := svc.HandleTurn(r.Context(), msg)
		writeJSON(w, http.StatusOK, map[string]any{"status": status})
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// recovered turns a pipeline panic into a 500 instead of killing the server.
func recovered(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logx.Error().Any("panic", rec).Msg("webhook handler panicked")
				writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "erro", "erro": "erro interno"})
			}
		}()
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		logx.Error().Err(err).Msg("failed to write response")
	}
}
