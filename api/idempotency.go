package api

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClaimState is the outcome of claiming one idempotency key.
type ClaimState int

const (
	// ClaimNew means the key was free and now belongs to the command.
	ClaimNew ClaimState = iota
	// ClaimDuplicate means the same command already holds the key.
	ClaimDuplicate
	// ClaimConflict means the key is held by a different command.
	ClaimConflict
)

// Claim pairs an idempotency key with the command it stands for.
type Claim struct {
	Key     string
	Command string
}

// RedisDeduper keeps claimed idempotency keys in Redis, shared by every
// instance. The stored value is the command the key was first used for.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(userID, key string) string {
	return "cmd:" + userID + ":" + key
}

// Claim records every key in a single round trip. When an error is returned,
// only the claims reported as ClaimNew were recorded.
func (r *RedisDeduper) Claim(ctx context.Context, userID string, claims []Claim) ([]ClaimState, error) {
	if len(claims) == 0 {
		return nil, nil
	}

	sets := make([]*redis.BoolCmd, len(claims))
	gets := make([]*redis.StringCmd, len(claims))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, c := range claims {
			k := r.key(userID, c.Key)
			sets[i] = pipe.SetNX(ctx, k, c.Command, r.ttl)
			gets[i] = pipe.Get(ctx, k)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return claimedSoFar(sets), err
	}

	states := make([]ClaimState, len(claims))
	for i, c := range claims {
		added, setErr := sets[i].Result()
		if setErr != nil {
			return claimedSoFar(sets), setErr
		}
		if added {
			states[i] = ClaimNew
			continue
		}
		held, getErr := gets[i].Result()
		switch {
		case errors.Is(getErr, redis.Nil):
			// Expired between SETNX and GET; the earlier claim still counted.
			states[i] = ClaimDuplicate
		case getErr != nil:
			return claimedSoFar(sets), getErr
		case held == c.Command:
			states[i] = ClaimDuplicate
		default:
			states[i] = ClaimConflict
		}
	}
	return states, nil
}

// Release forgets keys so their commands may be sent again.
func (r *RedisDeduper) Release(ctx context.Context, userID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(userID, k)
	}
	return r.client.Del(ctx, full...).Err()
}

func claimedSoFar(sets []*redis.BoolCmd) []ClaimState {
	states := make([]ClaimState, len(sets))
	for i, cmd := range sets {
		if added, err := cmd.Result(); err != nil || !added {
			states[i] = ClaimDuplicate
		}
	}
	return states
}
