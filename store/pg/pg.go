// Package pg provides a Postgres-backed correlation store. Heavier than
// Redis for this job, but hosts that already operate Postgres and nothing
// else can avoid a new dependency.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	signon "github.com/dropDatabas3/signon"
)

const schema = `
CREATE TABLE IF NOT EXISTS signon_correlation_nonces (
	id         TEXT PRIMARY KEY,
	nonce      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS signon_correlation_nonces_expires_at_idx
	ON signon_correlation_nonces (expires_at);
`

// Store implements signon.CorrelationStore on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects with the given DSN and bootstraps the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewFromPool wraps an existing pool and bootstraps the schema.
func NewFromPool(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) SaveNonce(ctx context.Context, id, nonce string, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO signon_correlation_nonces (id, nonce, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET nonce = $2, expires_at = $3`,
		id, nonce, time.Now().UTC().Add(ttl))
	return err
}

// ConsumeNonce deletes and returns in one statement, so a record can be
// consumed at most once even under concurrent callbacks. Expired rows are
// treated as absent.
func (s *Store) ConsumeNonce(ctx context.Context, id string) (string, error) {
	var nonce string
	err := s.pool.QueryRow(ctx,
		`DELETE FROM signon_correlation_nonces
		 WHERE id = $1 AND expires_at > now()
		 RETURNING nonce`,
		id).Scan(&nonce)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", signon.ErrNonceNotFound
	}
	if err != nil {
		return "", err
	}
	return nonce, nil
}

// PurgeExpired removes aged-out rows. Run it periodically; correctness does
// not depend on it because ConsumeNonce filters on expires_at.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM signon_correlation_nonces WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
