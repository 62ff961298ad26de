// Package redis provides a Redis-backed correlation store for hosts that
// run more than one replica behind a load balancer.
package redis

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"

	signon "github.com/dropDatabas3/signon"
)

// Store implements signon.CorrelationStore on top of a Redis client.
type Store struct {
	c      *rdb.Client
	prefix string
}

// New connects to addr. The prefix namespaces keys when the instance is
// shared with other workloads.
func New(addr string, db int, prefix string) *Store {
	if prefix == "" {
		prefix = "signon:corr:"
	}
	return &Store{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix: prefix,
	}
}

// NewFromClient wraps an existing client.
func NewFromClient(c *rdb.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "signon:corr:"
	}
	return &Store{c: c, prefix: prefix}
}

func (s *Store) SaveNonce(ctx context.Context, id, nonce string, ttl time.Duration) error {
	return s.c.Set(ctx, s.prefix+id, nonce, ttl).Err()
}

// ConsumeNonce is atomic: GETDEL guarantees single use even with
// concurrent callbacks racing on the same record.
func (s *Store) ConsumeNonce(ctx context.Context, id string) (string, error) {
	v, err := s.c.GetDel(ctx, s.prefix+id).Result()
	if err == rdb.Nil {
		return "", signon.ErrNonceNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.c.Close()
}
