package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerbook/client/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// OpenTokenStore builds the token store selected by the session config.
// Tokens are kept per backend host so switching base urls does not leak
// a token to a different server.
func OpenTokenStore(ctx context.Context, cfg *config.Config) (TokenStore, error) {

	logrus.WithFields(logrus.Fields{
		"backend": cfg.Session.Backend,
		"host":    cfg.GetHostname(),
	}).Debugln("Opening token store")

	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		return NewMemoryTokenStore(), nil
	case config.SessionBackendFile, "":
		return NewFileTokenStore(cfg.Session.Path, cfg.GetHostname()), nil
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Session.Redis.Addr, err)
		}

		key := cfg.Session.Redis.Prefix + cfg.GetHostname() + ":" + cfg.Session.Key
		return NewRedisTokenStore(client, key), nil
	}

	return nil, fmt.Errorf("unknown session backend: %s", cfg.Session.Backend)
}

type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

type RedisTokenStore struct {
	client *redis.Client
	key    string
}

func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	return &RedisTokenStore{client: client, key: key}
}

func (r *RedisTokenStore) Key() string {
	return r.key
}

func (r *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to read token from redis: %w", err)
	}
	return token, nil
}

func (r *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to write token to redis: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete token from redis: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Close() error {
	return r.client.Close()
}
