package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const readSetKeyPrefix = "notifications:read:"

// RedisReadSet persists read sets as Redis sets keyed per user.
type RedisReadSet struct {
	client *redis.Client
}

// NewRedisReadSet wraps an existing client.
func NewRedisReadSet(client *redis.Client) *RedisReadSet {
	return &RedisReadSet{client: client}
}

func readSetKey(userID string) string {
	return readSetKeyPrefix + userID
}

func (r *RedisReadSet) Add(ctx context.Context, userID, ticketID string) (bool, error) {
	added, err := r.client.SAdd(ctx, readSetKey(userID), ticketID).Result()
	if err != nil {
		return false, err
	}
	return added > 0, nil
}

func (r *RedisReadSet) Contains(ctx context.Context, userID, ticketID string) (bool, error) {
	return r.client.SIsMember(ctx, readSetKey(userID), ticketID).Result()
}

func (r *RedisReadSet) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, readSetKey(userID)).Err()
}
