package signon

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/signon/internal/observability/logger"
)

// CorrelationStore keeps the server-side half of the CSRF check: a random
// nonce saved under a record id for a bounded window and consumable exactly
// once. Implementations must make ConsumeNonce atomic (get-and-delete).
type CorrelationStore interface {
	// SaveNonce stores nonce under id with the given expiration window.
	SaveNonce(ctx context.Context, id, nonce string, ttl time.Duration) error

	// ConsumeNonce returns the nonce stored under id and deletes it in the
	// same step. Missing, expired or already-consumed ids yield
	// ErrNonceNotFound.
	ConsumeNonce(ctx context.Context, id string) (string, error)
}

// memoryStore is the in-process default, built on go-cache. Suitable for a
// single replica; multi-replica hosts should use store/redis or store/pg.
type memoryStore struct {
	mu sync.Mutex
	c  *gocache.Cache
}

// NewMemoryCorrelationStore returns the default in-process store.
func NewMemoryCorrelationStore() CorrelationStore {
	return &memoryStore{c: gocache.New(DefaultCorrelationTTL, time.Minute)}
}

func (m *memoryStore) SaveNonce(_ context.Context, id, nonce string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Set(id, nonce, ttl)
	return nil
}

func (m *memoryStore) ConsumeNonce(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(id)
	if !ok {
		return "", ErrNonceNotFound
	}
	m.c.Delete(id)
	nonce, _ := v.(string)
	return nonce, nil
}

// correlator issues and validates the per-flow CSRF nonce. The nonce lives
// in two places that must agree at callback time: the encrypted state bag
// and a store record addressed by a short-lived cookie.
type correlator struct {
	store      CorrelationStore
	cookieName string
	ttl        time.Duration
	secure     bool
}

func newCorrelator(opts *Options) *correlator {
	return &correlator{
		store:      opts.CorrelationStore,
		cookieName: "signon.corr." + opts.AuthenticationType,
		ttl:        opts.CorrelationTTL,
		secure:     opts.CookieSecure,
	}
}

// issue generates a fresh nonce, stores it under a new record id and sets
// the correlation cookie. Repeated challenges simply issue fresh records;
// stale ones age out of the store.
func (c *correlator) issue(ctx context.Context, w http.ResponseWriter) (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	nonce := base64.RawURLEncoding.EncodeToString(b[:])

	id := uuid.NewString()
	if err := c.store.SaveNonce(ctx, id, nonce, c.ttl); err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(c.ttl / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nonce, nil
}

// validate consumes the record addressed by the cookie and compares it with
// the nonce carried in the state bag. It never returns an error: any
// failure is a false, which the handler surfaces as a generic failed
// authentication without leaking which check tripped.
func (c *correlator) validate(ctx context.Context, w http.ResponseWriter, r *http.Request, nonce string) bool {
	log := logger.From(ctx).With(logger.Component("signon.correlation"))

	cookie, err := r.Cookie(c.cookieName)
	if err != nil || cookie.Value == "" {
		log.Warn("correlation cookie missing")
		return false
	}

	// Expire the cookie regardless of the outcome; it is single use.
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})

	stored, err := c.store.ConsumeNonce(ctx, cookie.Value)
	if err != nil {
		log.Warn("correlation record missing or expired", logger.Err(err))
		return false
	}
	if nonce == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(nonce)) != 1 {
		log.Warn("correlation nonce mismatch")
		return false
	}
	return true
}
