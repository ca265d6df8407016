// Package sequence provides identifier sequences shared between processes.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
)

// nextScript raises the counter to the scanned maximum when the sheet has
// moved ahead of it, then increments. It runs atomically on the server.
var nextScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local scanned = tonumber(ARGV[1])
if scanned > cur then cur = scanned end
cur = cur + 1
redis.call('SET', KEYS[1], cur)
return cur
`)

// RedisSequence allocates identifiers from a per-sheet counter in Redis so
// that concurrent appenders never receive the same number.
type RedisSequence struct {
	client *redis.Client
	prefix string
}

// NewRedisSequence connects to redisURL and verifies the connection.
func NewRedisSequence(redisURL string) (*RedisSequence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisSequenceWithClient(client), nil
}

// NewRedisSequenceWithClient wraps an existing client.
func NewRedisSequenceWithClient(client *redis.Client) *RedisSequence {
	return &RedisSequence{client: client, prefix: "tabledesk:seq:"}
}

var _ tabular.Sequence = (*RedisSequence)(nil)

func (s *RedisSequence) key(sheet, idPrefix string) string {
	return s.prefix + sheet + ":" + idPrefix
}

// Next implements tabular.Sequence.
func (s *RedisSequence) Next(ctx context.Context, sheet, idPrefix string, scanned int) (int, error) {
	n, err := nextScript.Run(ctx, s.client, []string{s.key(sheet, idPrefix)}, scanned).Int()
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", sheet, err)
	}
	return n, nil
}

// Current returns the last allocated number, or 0 when none was allocated.
func (s *RedisSequence) Current(ctx context.Context, sheet, idPrefix string) (int, error) {
	n, err := s.client.Get(ctx, s.key(sheet, idPrefix)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s sequence: %w", sheet, err)
	}
	return n, nil
}

// Close closes the Redis connection.
func (s *RedisSequence) Close() error {
	return s.client.Close()
}
