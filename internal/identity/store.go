package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/LucasNeuro/menogeo/internal/core/error"
	"github.com/LucasNeuro/menogeo/internal/ixc"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// ErrInvalidCPF is returned by BindCPF for anything but an 11-digit numeric id.
var ErrInvalidCPF = errors.New("invalid cpf: must be 11 digits")

// Store keeps the CPF binding, greeted flag and cached backend snapshots for
// each conversation. Every key is namespaced per remoteJid (and CPF for
// snapshots) so a shared channel identifier can never bleed across customers.
type Store struct {
	rdb        redis.Cmdable
	bindingTTL time.Duration
	greetedTTL time.Duration
	recordTTL  time.Duration
}

func NewStore(rdb redis.Cmdable, bindingTTL, greetedTTL, recordTTL time.Duration) *Store {
	return &Store{
		rdb:        rdb,
		bindingTTL: bindingTTL,
		greetedTTL: greetedTTL,
		recordTTL:  recordTTL,
	}
}

func bindingKey(remoteJid string) string {
	return fmt.Sprintf("conversa:%s:cpf", remoteJid)
}

func greetedKey(remoteJid string) string {
	return fmt.Sprintf("conversa:%s:greeted", remoteJid)
}

func recordKey(remoteJid, cpf string) string {
	return fmt.Sprintf("conversa:%s:%s:ixc", remoteJid, cpf)
}

// ResolveCPF reads the active binding for a conversation. A missing or expired
// binding resolves to ("", false, nil): the caller must then extract a CPF
// from the message or ask the user for one.
func (s *Store) ResolveCPF(ctx context.Context, remoteJid string) (string, bool, error) {
	cpf, err := s.rdb.Get(ctx, bindingKey(remoteJid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errx.WrapRedis(err)
	}
	return cpf, true, nil
}

// BindCPF validates and writes the conversation binding, overwriting any
// previous CPF for the same remoteJid.
func (s *Store) BindCPF(ctx context.Context, remoteJid, cpf string) error {
	if !IsCPF(cpf) {
		return ErrInvalidCPF
	}
	if err := s.rdb.Set(ctx, bindingKey(remoteJid), cpf, s.bindingTTL).Err(); err != nil {
		logx.Error().Err(err).Str("remote_jid", remoteJid).Msg("failed to bind cpf")
		return errx.WrapRedis(err)
	}
	return nil
}

// Greeted reports whether a personalized greeting was already sent within the
// greeting window. Errors fail open (not greeted) so a Redis hiccup can at
// worst repeat a greeting.
func (s *Store) Greeted(ctx context.Context, remoteJid string) bool {
	ok, err := s.rdb.Exists(ctx, greetedKey(remoteJid)).Result()
	if err != nil {
		logx.Warn().Err(err).Str("remote_jid", remoteJid).Msg("greeted flag lookup failed")
		return false
	}
	return ok > 0
}

// MarkGreeted sets the greeted flag with its own TTL.
func (s *Store) MarkGreeted(ctx context.Context, remoteJid string) error {
	if err := s.rdb.Set(ctx, greetedKey(remoteJid), "1", s.greetedTTL).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// LoadRecord returns the cached backend snapshot for (remoteJid, cpf), or
// (nil, false, nil) on a miss or after TTL expiry.
func (s *Store) LoadRecord(ctx context.Context, remoteJid, cpf string) (*ixc.CustomerRecord, bool, error) {
	raw, err := s.rdb.Get(ctx, recordKey(remoteJid, cpf)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errx.WrapRedis(err)
	}

	var rec ixc.CustomerRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// A corrupt snapshot is treated as a miss so the gateway refetches.
		logx.Warn().Err(err).Str("remote_jid", remoteJid).Msg("discarding unreadable cached record")
		return nil, false, nil
	}
	return &rec, true, nil
}

// SaveRecord overwrites the whole cached snapshot for (remoteJid, cpf).
func (s *Store) SaveRecord(ctx context.Context, remoteJid, cpf string, rec *ixc.CustomerRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.rdb.Set(ctx, recordKey(remoteJid, cpf), b, s.recordTTL).Err(); err != nil {
		logx.Error().Err(err).Str("remote_jid", remoteJid).Msg("failed to cache record")
		return errx.WrapRedis(err)
	}
	return nil
}
