package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces checkpoint keys in Redis.
const KeyPrefix = "courier:checkpoint:"

// RedisStore keeps one campaign's position under KeyPrefix+name.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore creates a store for the named campaign.
func NewRedisStore(client redis.UniversalClient, name string) *RedisStore {
	return &RedisStore{client: client, key: KeyPrefix + name}
}

// Key returns the Redis key holding the position.
func (s *RedisStore) Key() string { return s.key }

func (s *RedisStore) String() string { return "redis:" + s.key }

// Load implements Store. A missing key is position 0.
func (s *RedisStore) Load(ctx context.Context) (int, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("checkpoint: get %s: %w", s.key, err)
	}
	n, err := parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", err, s.key)
	}
	return n, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, position int) error {
	if position < 0 {
		return ErrNegativePosition
	}
	if err := s.client.Set(ctx, s.key, position, 0).Err(); err != nil {
		return fmt.Errorf("checkpoint: set %s: %w", s.key, err)
	}
	return nil
}

// Reset deletes the key.
func (s *RedisStore) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("checkpoint: del %s: %w", s.key, err)
	}
	return nil
}

// Healthcheck pings the server.
func (s *RedisStore) Healthcheck(ctx context.Context) error {
	if s.client == nil {
		return ErrHealthcheckFailed
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// RedisOption configures a Redis connection.
type RedisOption func(*redisOptions)

type redisOptions struct {
	poolSize      int
	retryAttempts int
	retryInterval time.Duration
	readTimeout   time.Duration
	writeTimeout  time.Duration
	dialTimeout   time.Duration
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		poolSize:      2,
		retryAttempts: 3,
		retryInterval: 2 * time.Second,
		readTimeout:   3 * time.Second,
		writeTimeout:  3 * time.Second,
		dialTimeout:   5 * time.Second,
	}
}

// WithPoolSize sets the maximum number of connections in the pool.
// Default: 2
func WithPoolSize(n int) RedisOption {
	return func(o *redisOptions) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// WithRetry configures connection retry behavior.
// Default: 3 attempts, 2 second base interval with linear backoff.
func WithRetry(attempts int, interval time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithDialTimeout sets the timeout for establishing new connections.
// Default: 5 seconds
func WithDialTimeout(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// OpenRedis creates a Redis client and verifies it with a ping, retrying
// with backoff. Supports redis:// and rediss:// (TLS) URLs.
func OpenRedis(ctx context.Context, url string, opts ...RedisOption) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	redisOpts.PoolSize = o.poolSize
	redisOpts.ReadTimeout = o.readTimeout
	redisOpts.WriteTimeout = o.writeTimeout
	redisOpts.DialTimeout = o.dialTimeout

	attempts := max(o.retryAttempts, 1)
	for i := range attempts {
		client := redis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		if err := wait(ctx, time.Duration(i+1)*o.retryInterval); err != nil {
			return nil, errors.Join(ErrConnectionFailed, err)
		}
	}

	return nil, ErrConnectionFailed
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
