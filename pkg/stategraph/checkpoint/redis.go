package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists threads to Redis, for deployments where multiple
// processes serve the same conversation threads. Each thread lives in a
// hash keyed by thread ID; a sorted set indexed by update time backs
// List.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	ownsClient bool

	mu     sync.RWMutex
	closed bool
}

// RedisOption configures a RedisStore.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix   string
	ttl      time.Duration
	password string
	db       int
}

// WithPrefix sets the key prefix. Defaults to "stategraph".
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithTTL expires threads after the given idle duration. Zero (the
// default) keeps threads forever. Expired threads drop out of List
// lazily.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *redisConfig) {
		c.ttl = ttl
	}
}

// WithPassword sets the Redis AUTH password.
func WithPassword(password string) RedisOption {
	return func(c *redisConfig) {
		c.password = password
	}
}

// WithDB selects the Redis logical database.
func WithDB(db int) RedisOption {
	return func(c *redisConfig) {
		c.db = db
	}
}

// NewRedisStore connects to Redis and verifies the connection with a
// ping. The returned store owns the connection; Close releases it.
func NewRedisStore(addr string, opts ...RedisOption) (*RedisStore, error) {
	cfg := redisConfig{prefix: "stategraph"}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.password,
		DB:       cfg.db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{
		client:     client,
		prefix:     cfg.prefix,
		ttl:        cfg.ttl,
		ownsClient: true,
	}, nil
}

// NewRedisStoreFromClient wraps an existing client, for callers that
// manage their own connection pool. Close leaves the client open.
func NewRedisStoreFromClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	cfg := redisConfig{prefix: "stategraph"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RedisStore{
		client: client,
		prefix: cfg.prefix,
		ttl:    cfg.ttl,
	}
}

func (r *RedisStore) threadKey(threadID string) string {
	return r.prefix + ":thread:" + threadID
}

func (r *RedisStore) indexKey() string {
	return r.prefix + ":threads"
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, threadID string, data []byte) error {
	if threadID == "" {
		return ErrEmptyThreadID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrStoreClosed
	}

	now := time.Now().UTC()
	key := r.threadKey(threadID)

	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, key, "sequence", 1)
	pipe.HSet(ctx, key, "data", data, "updated_at", now.UnixNano())
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(now.UnixNano()), Member: threadID})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, threadID string) ([]byte, error) {
	if threadID == "" {
		return nil, ErrEmptyThreadID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrStoreClosed
	}

	data, err := r.client.HGet(ctx, r.threadKey(threadID), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return data, nil
}

// List implements Store.
func (r *RedisStore) List(ctx context.Context) ([]Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrStoreClosed
	}

	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		key := r.threadKey(id)
		vals, err := r.client.HMGet(ctx, key, "sequence", "updated_at").Result()
		if err != nil {
			return nil, fmt.Errorf("read thread %s: %w", id, err)
		}
		if vals[0] == nil {
			// Hash expired; drop the stale index entry
			r.client.ZRem(ctx, r.indexKey(), id)
			continue
		}
		size, err := r.client.HStrLen(ctx, key, "data").Result()
		if err != nil {
			return nil, fmt.Errorf("read thread %s: %w", id, err)
		}
		info := Info{ThreadID: id, Size: size}
		if s, ok := vals[0].(string); ok {
			info.Sequence, _ = strconv.ParseInt(s, 10, 64)
		}
		if s, ok := vals[1].(string); ok {
			nanos, _ := strconv.ParseInt(s, 10, 64)
			info.UpdatedAt = time.Unix(0, nanos).UTC()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, threadID string) error {
	if threadID == "" {
		return ErrEmptyThreadID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrStoreClosed
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.threadKey(threadID))
	pipe.ZRem(ctx, r.indexKey(), threadID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close implements Store. The underlying client is closed only when the
// store created it.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}
