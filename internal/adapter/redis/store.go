package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// setIfNewer writes the hash fields v, ts and d only when the stored ts is not newer.
// KEYS[1] key, ARGV[1] value, ARGV[2] unix nanos, ARGV[3] "1" for delete.
var setIfNewer = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ts')
if cur and tonumber(cur) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'ts', ARGV[2], 'd', ARGV[3])
return 1
`)

// Client is satisfied by *goredis.Client.
type Client interface {
	goredis.Scripter
	HMGet(ctx context.Context, key string, fields ...string) *goredis.SliceCmd
}

// Store keeps every key in a redis hash guarded by a timestamp compare.
type Store struct {
	client Client
	prefix string
}

func NewStore(client Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "RedisStore.Get"

	vals, err := s.client.HMGet(ctx, s.key(key), "v", "d").Result()
	metrics.RecordStoreOperation(types.StoreRedis, "get", err)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(vals) != 2 || vals[0] == nil {
		return nil, types.ErrNotFound
	}
	if d, _ := vals[1].(string); d == "1" {
		return nil, types.ErrNotFound
	}

	v, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected value type %T", op, vals[0])
	}
	return []byte(v), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, at time.Time) error {
	const op = "RedisStore.Set"
	if err := s.write(ctx, key, value, at, false); err != nil {
		metrics.RecordStoreOperation(types.StoreRedis, "set", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordStoreOperation(types.StoreRedis, "set", nil)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string, at time.Time) error {
	const op = "RedisStore.Delete"
	if err := s.write(ctx, key, nil, at, true); err != nil {
		metrics.RecordStoreOperation(types.StoreRedis, "delete", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordStoreOperation(types.StoreRedis, "delete", nil)
	return nil
}

func (s *Store) write(ctx context.Context, key string, value []byte, at time.Time, deleted bool) error {
	d := "0"
	if deleted {
		d = "1"
	}
	return setIfNewer.Run(ctx, s.client, []string{s.key(key)}, value, at.UnixNano(), d).Err()
}
