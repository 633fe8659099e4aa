package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SergeyParamoshkin/blog/internal/model"
)

const (
	DefaultPrefix = "blog:"

	connectionTimeout = 5 * time.Second
)

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// Redis stores listings as JSON strings with a key expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Redis{
		client: client,
		prefix: prefix,
	}
}

// Dial connects to addr and verifies the connection with a PING.
func Dial(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func (r *Redis) GetPosts(ctx context.Context, key string) ([]model.BlogPost, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	var posts []model.BlogPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}

	return posts, true, nil
}

func (r *Redis) SetPosts(ctx context.Context, key string, posts []model.BlogPost, ttl time.Duration) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}
