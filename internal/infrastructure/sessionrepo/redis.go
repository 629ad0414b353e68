package sessionrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minimart/storefront/internal/application/session"
)

const defaultKeyPrefix = "minimart:session:"

// RedisConfig holds configuration for the Redis session repository
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// RedisRepository implements session.Repository using Redis
type RedisRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRepository connects to Redis and verifies the connection.
func NewRedisRepository(ctx context.Context, cfg RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for sessions: %w", err)
	}

	return NewRedisRepositoryWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisRepositoryWithClient creates a repository with an existing Redis client
func NewRedisRepositoryWithClient(client *redis.Client, keyPrefix string) *RedisRepository {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisRepository) redisKey(key string) string {
	return r.keyPrefix + key
}

// Save stores rec as JSON under key.
func (r *RedisRepository) Save(ctx context.Context, key string, rec session.Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}
	if err := r.client.Set(ctx, r.redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the record under key.
func (r *RedisRepository) Load(ctx context.Context, key string) (session.Record, error) {
	data, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Record{}, session.ErrRecordNotFound
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to load session: %w", err)
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return session.Record{}, fmt.Errorf("decoding session record: %w", err)
	}
	return rec, nil
}

// Delete removes the record under key.
func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// Ensure RedisRepository implements session.Repository
var _ session.Repository = (*RedisRepository)(nil)
