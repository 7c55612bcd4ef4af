// Package queue is the optional ingestion mode: inbound events arrive on a
// Redis list instead of the HTTP webhook, for deployments that buffer the
// gateway behind a broker.
package queue

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/LucasNeuro/menogeo/internal/config"
	"github.com/LucasNeuro/menogeo/internal/webhook"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// Worker drains the inbound list with BLMOVE into a processing list, removing
// entries only after the turn completes. A crash mid-turn leaves the event on
// the processing list for operator replay; delivery is at-least-once.
type Worker struct {
	rdb redis.Cmdable
	svc *webhook.Service
	cfg config.QueueConfig
}

func NewWorker(rdb redis.Cmdable, svc *webhook.Service, cfg config.QueueConfig) *Worker {
	return &Worker{rdb: rdb, svc: svc, cfg: cfg}
}

// Enqueue pushes one raw gateway event onto the inbound list.
func (w *Worker) Enqueue(ctx context.Context, body []byte) error {
	return w.rdb.LPush(ctx, w.cfg.Key, body).Err()
}

// Requeue moves events stranded on the processing list by a previous crash
// back onto the inbound list.
func (w *Worker) Requeue(ctx context.Context) error {
	processing := w.cfg.Key + ":processing"
	moved := 0
	for {
		_, err := w.rdb.LMove(ctx, processing, w.cfg.Key, "RIGHT", "LEFT").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				if moved > 0 {
					logx.Info().Int("events", moved).Msg("requeued stranded events")
				}
				return nil
			}
			return err
		}
		moved++
	}
}

// Run requeues stranded events and then consumes until the context is
// cancelled.
func (w *Worker) Run(ctx context.Context) error {
	processing := w.cfg.Key + ":processing"
	if err := w.Requeue(ctx); err != nil {
		logx.Error().Err(err).Msg("could not requeue stranded events")
	}
	logx.Info().Str("key", w.cfg.Key).Msg("queue worker started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := w.rdb.BLMove(ctx, w.cfg.Key, processing, "RIGHT", "LEFT", w.cfg.PopTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logx.Error().Err(err).Msg("queue pop failed")
			continue
		}

		w.process(ctx, raw)

		if err := w.rdb.LRem(ctx, processing, 1, raw).Err(); err != nil {
			logx.Warn().Err(err).Msg("could not ack processed event")
		}
	}
}

func (w *Worker) process(ctx context.Context, raw string) {
	msg, ignoreReason, err := webhook.Extract([]byte(raw))
	if err != nil {
		if ignoreReason != "" {
			logx.Debug().Str("reason", ignoreReason).Msg("queued event ignored")
		} else {
			logx.Warn().Msg("malformed queued event dropped")
		}
		return
	}

	status := w.svc.HandleTurn(ctx, msg)
	logx.Debug().Str("status", status).Str("remote_jid", msg.RemoteJid).Msg("queued event processed")
}
