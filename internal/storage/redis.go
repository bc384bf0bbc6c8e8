package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// RedisBackend maps every key to a redis string under a namespace. Batches
// run as MULTI/EXEC on a dedicated connection.
type RedisBackend struct {
	client    rueidis.Client
	namespace string
	logger    *zap.Logger
}

func NewRedisBackend(client rueidis.Client, namespace string, logger *zap.Logger) *RedisBackend {
	return &RedisBackend{client: client, namespace: namespace, logger: logger}
}

// DialRedis opens a client for addr and wraps it.
func DialRedis(addr, namespace string, logger *zap.Logger) (*RedisBackend, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Connected to redis", zap.String("addr", addr))
	return NewRedisBackend(client, namespace, logger), nil
}

func (r *RedisBackend) redisKey(key []byte) string {
	return r.namespace + ":" + hex.EncodeToString(key)
}

func (r *RedisBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	v, err := r.client.Do(ctx, r.client.B().Get().Key(r.redisKey(key)).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %x: %w", key, err)
	}
	return v, nil
}

func (r *RedisBackend) Scan(ctx context.Context, prefix []byte, fn ScanFunc) error {
	pattern := r.redisKey(prefix) + "*"
	var names []string
	var cursor uint64
	for {
		entry, err := r.client.Do(ctx, r.client.B().Scan().Cursor(cursor).Match(pattern).Count(500).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("scan %x: %w", prefix, err)
		}
		names = append(names, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	values, err := r.client.Do(ctx, r.client.B().Mget().Key(names...).Build()).ToArray()
	if err != nil {
		return fmt.Errorf("mget: %w", err)
	}
	trim := len(r.namespace) + 1
	for i, name := range names {
		v, err := values[i].AsBytes()
		if rueidis.IsRedisNil(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		key, err := hex.DecodeString(name[trim:])
		if err != nil {
			return fmt.Errorf("corrupt key %q: %w", name, err)
		}
		if err := fn(key, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *RedisBackend) Apply(ctx context.Context, ops []Op) error {
	return r.client.Dedicated(func(c rueidis.DedicatedClient) error {
		cmds := make([]rueidis.Completed, 0, len(ops)+2)
		cmds = append(cmds, c.B().Multi().Build())
		for _, op := range ops {
			if op.Delete {
				cmds = append(cmds, c.B().Del().Key(r.redisKey(op.Key)).Build())
			} else {
				cmds = append(cmds, c.B().Set().Key(r.redisKey(op.Key)).Value(rueidis.BinaryString(op.Value)).Build())
			}
		}
		cmds = append(cmds, c.B().Exec().Build())
		for _, resp := range c.DoMulti(ctx, cmds...) {
			if err := resp.Error(); err != nil {
				return fmt.Errorf("apply batch: %w", err)
			}
		}
		return nil
	})
}

func (r *RedisBackend) Close(context.Context) error {
	r.client.Close()
	return nil
}
