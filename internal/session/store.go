package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Load(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, id string, data Data, fields Fields) error
	Delete(ctx context.Context, id string) error
}

type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return "websession:" + id
}

// hash fields of a stored session
const (
	hashCartSessionID = "cartSessionId"
	hashCredential    = "credential"
	hashUserEmail     = "userEmail"
	hashLastOrder     = "lastOrder"
)

// Load reads the session and restarts its TTL, so an active browser keeps its
// session even when nothing changes.
func (r *RedisStore) Load(ctx context.Context, id string) (Data, error) {
	key := sessionKey(id)

	var all *redis.MapStringStringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		all = pipe.HGetAll(ctx, key)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return Data{}, fmt.Errorf("load session: %w", err)
	}

	fields := all.Val()
	if len(fields) == 0 {
		return Data{}, ErrNotFound
	}

	data := Data{
		CartSessionID: fields[hashCartSessionID],
		UserEmail:     fields[hashUserEmail],
	}
	if raw, ok := fields[hashCredential]; ok {
		data.Credential = &Credential{}
		if err := json.Unmarshal([]byte(raw), data.Credential); err != nil {
			return Data{}, fmt.Errorf("decode session credential: %w", err)
		}
	}
	if raw, ok := fields[hashLastOrder]; ok {
		data.LastOrder = &OrderRef{}
		if err := json.Unmarshal([]byte(raw), data.LastOrder); err != nil {
			return Data{}, fmt.Errorf("decode session order: %w", err)
		}
	}
	return data, nil
}

// Save writes only the named fields of data, in one transaction, and restarts
// the TTL. Empty values remove their field.
func (r *RedisStore) Save(ctx context.Context, id string, data Data, fields Fields) error {
	values := map[string]interface{}{}
	var removed []string

	put := func(name string, value interface{}, empty bool) error {
		if empty {
			removed = append(removed, name)
			return nil
		}
		if _, ok := value.(string); !ok {
			raw, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encode session %s: %w", name, err)
			}
			value = string(raw)
		}
		values[name] = value
		return nil
	}

	if fields.Has(FieldCartSessionID) {
		if err := put(hashCartSessionID, data.CartSessionID, data.CartSessionID == ""); err != nil {
			return err
		}
	}
	if fields.Has(FieldCredential) {
		if err := put(hashCredential, data.Credential, data.Credential == nil); err != nil {
			return err
		}
	}
	if fields.Has(FieldUserEmail) {
		if err := put(hashUserEmail, data.UserEmail, data.UserEmail == ""); err != nil {
			return err
		}
	}
	if fields.Has(FieldLastOrder) {
		if err := put(hashLastOrder, data.LastOrder, data.LastOrder == nil); err != nil {
			return err
		}
	}

	key := sessionKey(id)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		if len(removed) > 0 {
			pipe.HDel(ctx, key, removed...)
		}
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}
