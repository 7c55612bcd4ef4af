package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	errx "github.com/LucasNeuro/menogeo/internal/core/error"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

const fallbackPageSize = 50

// Store persists conversation turns as a Redis list per (remoteJid, cpf).
type Store struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	pageSize int
}

func NewStore(rdb redis.Cmdable, ttl time.Duration, pageSize int) *Store {
	if pageSize < 1 {
		pageSize = fallbackPageSize
	}
	return &Store{rdb: rdb, ttl: ttl, pageSize: pageSize}
}

func historyKey(remoteJid, cpf string) string {
	return fmt.Sprintf("conversa:%s:%s:messages", remoteJid, cpf)
}

// Append stores one turn. Turns with roles other than user/assistant and
// turns carrying denylisted content are silently dropped; durable memory must
// never hold sensitive payload data.
func (s *Store) Append(ctx context.Context, remoteJid, cpf string, msg *schema.Message) error {
	if msg == nil {
		return nil
	}
	if msg.Role != schema.User && msg.Role != schema.Assistant {
		return nil
	}
	if ContainsSensitiveData(msg.Content) {
		logx.Debug().Str("remote_jid", remoteJid).Msg("turn withheld from history by denylist")
		return nil
	}

	b, err := json.Marshal(msg)
	if err != nil {
		logx.Error().Err(err).Str("remote_jid", remoteJid).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := historyKey(remoteJid, cpf)

	if err := s.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if s.ttl > 0 {
		if ok, err := s.rdb.Expire(ctx, key, s.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", s.ttl).Msg("failed to set TTL on history key")
		}
	}
	return nil
}

// pageRange maps a 1-based page to inclusive list indices.
func pageRange(page, pageSize int) (start, stop int64) {
	if page < 1 {
		page = 1
	}
	start = int64(page-1) * int64(pageSize)
	stop = start + int64(pageSize) - 1
	return start, stop
}

// Fetch returns one page of turns ordered oldest to newest. Pages are
// 1-based; the cursor is stateless. A pageSize below 1 falls back to the
// configured page size.
func (s *Store) Fetch(ctx context.Context, remoteJid, cpf string, page, pageSize int) ([]*schema.Message, error) {
	if pageSize < 1 {
		pageSize = s.pageSize
	}
	key := historyKey(remoteJid, cpf)
	start, stop := pageRange(page, pageSize)

	rows, err := s.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, row := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(row), &m); err != nil {
			logx.Error().Err(err).Str("key", key).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

// Recent returns the last limit turns, oldest to newest.
func (s *Store) Recent(ctx context.Context, remoteJid, cpf string, limit int) ([]*schema.Message, error) {
	if limit < 1 {
		return nil, nil
	}
	key := historyKey(remoteJid, cpf)

	rows, err := s.rdb.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load recent history")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, row := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(row), &m); err != nil {
			logx.Warn().Err(err).Str("key", key).Int("index", i).Msg("skipping unreadable turn")
			continue
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}
