package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

const (
	stateTTL    = 24 * time.Hour
	categoryTTL = 30 * 24 * time.Hour
	opTimeout   = 3 * time.Second
)

// RedisManager manages user states using Redis so they survive restarts
// and are shared between bot replicas
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager creates a new Redis-based state manager
func NewRedisManager(addr string) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           0,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisManager{client: client}, nil
}

func stateKey(userID int64) string    { return fmt.Sprintf("user:%d:state", userID) }
func categoryKey(userID int64) string { return fmt.Sprintf("user:%d:category", userID) }

// SetUserState sets the state for a user with TTL
func (m *RedisManager) SetUserState(userID int64, state string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := m.client.Set(ctx, stateKey(userID), state, stateTTL).Err(); err != nil {
		logger.Warn("Failed to store user state", "telegram_id", userID, "error", err)
	}
}

// GetUserState gets the state for a user, None when missing or unreadable
func (m *RedisManager) GetUserState(userID int64) string {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	val, err := m.client.Get(ctx, stateKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to read user state", "telegram_id", userID, "error", err)
		}
		return None
	}
	return val
}

func (m *RedisManager) ClearUserState(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	m.client.Del(ctx, stateKey(userID))
}

func (m *RedisManager) SetCategory(userID int64, category domain.Category) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := m.client.Set(ctx, categoryKey(userID), string(category), categoryTTL).Err(); err != nil {
		logger.Warn("Failed to store category", "telegram_id", userID, "error", err)
	}
}

func (m *RedisManager) GetCategory(userID int64) domain.Category {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	val, err := m.client.Get(ctx, categoryKey(userID)).Result()
	if err != nil {
		return domain.CategoryGeneral
	}
	category := domain.Category(val)
	if !category.Valid() {
		return domain.CategoryGeneral
	}
	return category
}

// Close closes the Redis connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}
