package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

// DefaultPrefix namespaces the session keys.
const DefaultPrefix = "tradeenv"

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisConfig configures NewRedisStore.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr" validate:"required"`
	Password string        `yaml:"password" json:"password,omitempty"`
	DB       int           `yaml:"db" json:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// RedisStore stores sessions as JSON under "<prefix>:env:<token>".
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()

		return nil, errors.Wrapf(errors.ErrCodeSessionStore, err, "failed to ping redis at %s", cfg.Addr)
	}

	return NewRedisStoreWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client. Empty prefix and
// non-positive ttl fall back to the defaults.
func NewRedisStoreWithClient(client RedisClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(token string) string {
	return fmt.Sprintf("%s:env:%s", s.prefix, token)
}

func (s *RedisStore) Save(ctx context.Context, session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionStore, "failed to encode session", err)
	}

	if err := s.client.Set(ctx, s.key(session.Token), data, s.ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeSessionStore, "failed to save session", err)
	}

	return nil
}

func (s *RedisStore) Load(ctx context.Context, token string) (Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, notFound(token)
		}

		return Session{}, errors.Wrap(errors.ErrCodeSessionStore, "failed to load session", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, errors.Wrap(errors.ErrCodeSessionStore, "failed to decode session", err)
	}

	return session, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeSessionStore, "failed to delete session", err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
