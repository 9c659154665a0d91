package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// ActionTokenRepository stores at most one live token per (kind, purpose,
// user). Saving replaces any previous token and restarts its TTL.
type ActionTokenRepository interface {
	Save(ctx context.Context, token *model.ActionToken) error
	Find(ctx context.Context, kind model.Kind, purpose model.TokenPurpose, userID string) (*model.ActionToken, error)
	// Delete removes the stored token only if it still equals token.Token.
	Delete(ctx context.Context, token *model.ActionToken) (bool, error)
	// Touch restarts the TTL only if the stored token still equals token.Token.
	Touch(ctx context.Context, token *model.ActionToken) (bool, error)
}

type redisActionTokenRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisActionTokenRepository(rdb *redis.Client, ttl time.Duration) ActionTokenRepository {
	return &redisActionTokenRepository{rdb: rdb, ttl: ttl}
}

const (
	fieldToken     = "token"
	fieldCreatedAt = "created_at"
)

// deleteIfMatch removes the key only while it still holds the caller's token,
// so a token re-issued in between survives the cleanup.
var deleteIfMatch = redis.NewScript(`
	if redis.call("hget", KEYS[1], "token") == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

var expireIfMatch = redis.NewScript(`
	if redis.call("hget", KEYS[1], "token") == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

func actionTokenKey(kind model.Kind, purpose model.TokenPurpose, userID string) string {
	return fmt.Sprintf("action_token:%s:%s:%s", kind, purpose, userID)
}

func (r *redisActionTokenRepository) Save(ctx context.Context, token *model.ActionToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	key := actionTokenKey(token.Kind, token.Purpose, token.UserID)

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldToken, token.Token, fieldCreatedAt, token.CreatedAt.Unix())
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisActionTokenRepository.Save: %w", err)
	}
	return nil
}

func (r *redisActionTokenRepository) Find(ctx context.Context, kind model.Kind, purpose model.TokenPurpose, userID string) (*model.ActionToken, error) {
	values, err := r.rdb.HGetAll(ctx, actionTokenKey(kind, purpose, userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redisActionTokenRepository.Find: %w", err)
	}
	value, ok := values[fieldToken]
	if !ok || value == "" {
		return nil, common.ErrTokenNotFound
	}

	token := &model.ActionToken{Kind: kind, Purpose: purpose, UserID: userID, Token: value}
	if ts, err := strconv.ParseInt(values[fieldCreatedAt], 10, 64); err == nil {
		token.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return token, nil
}

func (r *redisActionTokenRepository) Delete(ctx context.Context, token *model.ActionToken) (bool, error) {
	key := actionTokenKey(token.Kind, token.Purpose, token.UserID)
	deleted, err := deleteIfMatch.Run(ctx, r.rdb, []string{key}, token.Token).Int64()
	if err != nil {
		return false, fmt.Errorf("redisActionTokenRepository.Delete: %w", err)
	}
	return deleted == 1, nil
}

func (r *redisActionTokenRepository) Touch(ctx context.Context, token *model.ActionToken) (bool, error) {
	key := actionTokenKey(token.Kind, token.Purpose, token.UserID)
	touched, err := expireIfMatch.Run(ctx, r.rdb, []string{key}, token.Token, r.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redisActionTokenRepository.Touch: %w", err)
	}
	return touched == 1, nil
}
