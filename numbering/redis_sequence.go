package numbering

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisSequence struct {
	rdb redis.Cmdable
}

func NewRedisSequence(rdb redis.Cmdable) *RedisSequence {
	if rdb == nil {
		panic("missing redis client")
	}

	return &RedisSequence{rdb: rdb}
}

func (s *RedisSequence) Next(ctx context.Context, year int) (int64, error) {
	value, err := s.rdb.Incr(ctx, sequenceKey(year)).Result()
	if err != nil {
		return 0, fmt.Errorf("could not increment ticket sequence for %d: %w", year, err)
	}

	return value, nil
}

func sequenceKey(year int) string {
	return fmt.Sprintf("tickets:sequence:%d", year)
}
