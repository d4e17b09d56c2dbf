package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"otomar/internal/model"

	"github.com/redis/go-redis/v9"
)

const defaultCartTTL = 7 * 24 * time.Hour

// RedisCartStore stores each cart as a hash of product id to quantity.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{
		client: client,
		ttl:    defaultCartTTL,
	}
}

func (r *RedisCartStore) Lines(ctx context.Context, owner string) ([]model.CartLine, error) {
	values, err := r.client.HGetAll(ctx, cartKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	lines := make([]model.CartLine, 0, len(values))
	for field, value := range values {
		productID, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		quantity, err := strconv.Atoi(value)
		if err != nil || quantity <= 0 {
			continue
		}
		lines = append(lines, model.CartLine{ProductID: uint(productID), Quantity: quantity})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (r *RedisCartStore) SetQuantity(ctx context.Context, owner string, productID uint, quantity int) error {
	key := cartKey(owner)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, productField(productID), quantity)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set cart line failed: %w", err)
	}
	return nil
}

func (r *RedisCartStore) Remove(ctx context.Context, owner string, productID uint) error {
	if err := r.client.HDel(ctx, cartKey(owner), productField(productID)).Err(); err != nil {
		return fmt.Errorf("redis remove cart line failed: %w", err)
	}
	return nil
}

func (r *RedisCartStore) Clear(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, cartKey(owner)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(owner string) string {
	return fmt.Sprintf("cart:%s", owner)
}

func productField(productID uint) string {
	return strconv.FormatUint(uint64(productID), 10)
}
