package directory

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/trustlens/internal/model"
)

const (
	keyPrefix       = "trustlens:key:"
	blacklistPrefix = "trustlens:blacklist:"
)

// Redis reads keys from hashes (trustlens:key:<key> with mode and prompt
// fields) and blacklists from sets (trustlens:blacklist:<key>)
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed directory
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Lookup implements Directory
func (r *Redis) Lookup(ctx context.Context, key string) (model.KeyInfo, error) {
	fields, err := r.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return model.KeyInfo{}, fmt.Errorf("redis lookup: %w", err)
	}
	// HGETALL on a missing key returns an empty map
	if len(fields) == 0 {
		return model.KeyInfo{}, fmt.Errorf("redis directory: %w", model.ErrInvalidKey)
	}
	return model.KeyInfo{
		Key:    key,
		Mode:   model.KeyMode(fields["mode"]),
		Prompt: fields["prompt"],
	}, nil
}

// Blacklist implements Directory
func (r *Redis) Blacklist(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, blacklistPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis blacklist: %w", err)
	}
	entries := normalizeDomains(members)
	sort.Strings(entries)
	return entries, nil
}

// Put stores a key and replaces its blacklist
func (r *Redis) Put(ctx context.Context, info model.KeyInfo, blacklist []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, keyPrefix+info.Key, "mode", string(info.Mode), "prompt", info.Prompt)
		pipe.Del(ctx, blacklistPrefix+info.Key)
		if entries := normalizeDomains(blacklist); len(entries) > 0 {
			members := make([]any, len(entries))
			for i, e := range entries {
				members[i] = e
			}
			pipe.SAdd(ctx, blacklistPrefix+info.Key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}
