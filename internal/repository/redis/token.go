package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mediqueue/clinic-api/internal/repository"
)

type tokenRepository struct {
	client *redis.Client
}

// NewTokenRepository stores refresh tokens keyed by user id so logout and
// rotation revoke every outstanding token at once.
func NewTokenRepository(url string) (repository.TokenRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &tokenRepository{client: client}, nil
}

func tokenKey(userID uuid.UUID) string {
	return "refresh_token:" + userID.String()
}

func (r *tokenRepository) Save(ctx context.Context, userID uuid.UUID, token string, ttlSeconds int) error {
	err := r.client.Set(ctx, tokenKey(userID), token, time.Duration(ttlSeconds)*time.Second).Err()
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (r *tokenRepository) Valid(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	stored, err := r.client.Get(ctx, tokenKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read refresh token: %w", err)
	}
	return stored == token, nil
}

func (r *tokenRepository) Revoke(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}
