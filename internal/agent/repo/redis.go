package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/cpap-support-agent/server/internal/agent/model"
	errx "github.com/cpap-support-agent/server/internal/core/error"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

const defaultKeyPrefix = "cpap-agent"

// RedisOptions tunes how threads are stored.
type RedisOptions struct {
	// TTL is refreshed on every append; zero keeps threads forever.
	TTL time.Duration
	// MaxMessages caps the stored list length; zero keeps every message.
	MaxMessages int
	KeyPrefix   string
}

// RedisConversationRepository keeps each thread as a Redis list of JSON-encoded
// messages, oldest first.
type RedisConversationRepository struct {
	rdb  redis.Cmdable
	opts RedisOptions
}

func NewRedisConversationRepository(rdb redis.Cmdable, opts RedisOptions) *RedisConversationRepository {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	return &RedisConversationRepository{rdb: rdb, opts: opts}
}

func (r *RedisConversationRepository) threadKey(threadID string) string {
	return fmt.Sprintf("%s:thread:%s:messages", r.opts.KeyPrefix, threadID)
}

func (r *RedisConversationRepository) AddMessage(ctx context.Context, threadID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.threadKey(threadID)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, b)
		if r.opts.MaxMessages > 0 {
			pipe.LTrim(ctx, key, int64(-r.opts.MaxMessages), -1)
		}
		if r.opts.TTL > 0 {
			pipe.Expire(ctx, key, r.opts.TTL)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append message to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) LoadHistory(ctx context.Context, threadID string) (*model.ConversationHistory, error) {
	key := r.threadKey(threadID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to load thread history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, row := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(row), &m); err != nil {
			logx.Error().Err(err).Str("thread_id", threadID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return &model.ConversationHistory{ThreadID: threadID, Messages: msgs}, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, threadID string) error {
	if err := r.rdb.Del(ctx, r.threadKey(threadID)).Err(); err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to delete thread history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetMessageCount(ctx context.Context, threadID string) (int, error) {
	n, err := r.rdb.LLen(ctx, r.threadKey(threadID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to count thread messages in redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
