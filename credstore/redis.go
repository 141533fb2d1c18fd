package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is an exported constant or variable used by the credential-store adapters.
var ErrUnavailable = errors.New("credential store unavailable")

const defaultRedisPrefix = "creds"

// Redis defines a public type used by authkit APIs.
//
// Redis adapts a go-redis client to the credential-store contract. Keys are
// namespaced under a prefix and stored without TTL; session lifetime is the
// client's concern, not the store's.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis describes the newredis operation and its observable behavior.
//
// NewRedis performs no I/O; the first operation surfaces connectivity problems.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

// Get returns the value for key, reporting absence separately from backend
// failure.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// Set stores value under key without expiry.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
