package positions

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/codemap/pkg/cache"
	"github.com/matzehuels/codemap/pkg/graph"
)

// DefaultNamespace is the Redis hash key and Mongo collection used when
// none is configured.
const DefaultNamespace = "codemap:positions"

// RedisStore keeps positions in one Redis hash. Each field is a node ID and
// each value is "x,y".
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the server at url and pings it.
func NewRedisStore(ctx context.Context, url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return newRedisStore(ctx, redis.NewClient(opts), key)
}

func newRedisStore(ctx context.Context, client *redis.Client, key string) (*RedisStore, error) {
	if key == "" {
		key = DefaultNamespace
	}
	s := &RedisStore{client: client, key: key}
	if err := s.retry(ctx, func() error { return client.Ping(ctx).Err() }); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return s, nil
}

func (s *RedisStore) Load(ctx context.Context) (map[string]graph.Point, error) {
	var fields map[string]string
	err := s.retry(ctx, func() error {
		var err error
		fields, err = s.client.HGetAll(ctx, s.key).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	out := make(map[string]graph.Point, len(fields))
	for id, v := range fields {
		p, ok := parsePoint(v)
		if !ok {
			continue
		}
		out[id] = p
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, p graph.Point) error {
	return s.retry(ctx, func() error {
		return s.client.HSet(ctx, s.key, key, formatPoint(p)).Err()
	})
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.retry(ctx, func() error {
		return s.client.HDel(ctx, s.key, key).Err()
	})
}

func (s *RedisStore) Close() error { return s.client.Close() }

// retry repeats fn while it fails with a network error.
func (s *RedisStore) retry(ctx context.Context, fn func() error) error {
	return cache.DefaultRetry.Do(ctx, func() error {
		err := fn()
		if err == nil || err == redis.Nil {
			return nil
		}
		if _, ok := err.(net.Error); ok {
			return cache.Transient(fmt.Errorf("%w: %v", cache.ErrUnavailable, err))
		}
		return err
	})
}

func formatPoint(p graph.Point) string {
	return strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
}

func parsePoint(v string) (graph.Point, bool) {
	xs, ys, ok := strings.Cut(v, ",")
	if !ok {
		return graph.Point{}, false
	}
	x, err1 := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, err2 := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err1 != nil || err2 != nil {
		return graph.Point{}, false
	}
	return graph.Point{X: x, Y: y}, true
}

var _ Store = (*RedisStore)(nil)
