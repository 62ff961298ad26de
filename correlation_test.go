package signon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCorrelator(t *testing.T, ttl time.Duration) *correlator {
	t.Helper()
	opts := &Options{
		AuthenticationType: DefaultAuthenticationType,
		CorrelationStore:   NewMemoryCorrelationStore(),
		CorrelationTTL:     ttl,
	}
	return newCorrelator(opts)
}

// issueNonce runs issue and returns the nonce plus the correlation cookie.
func issueNonce(t *testing.T, c *correlator) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	nonce, err := c.issue(context.Background(), rec)
	require.NoError(t, err)
	require.NotEmpty(t, nonce)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, c.cookieName, cookie.Name)
	require.True(t, cookie.HttpOnly)
	return nonce, cookie
}

func validateRequest(c *correlator, cookie *http.Cookie, nonce string) bool {
	r := httptest.NewRequest(http.MethodGet, "/signin-hellojohn", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return c.validate(context.Background(), httptest.NewRecorder(), r, nonce)
}

func TestCorrelationHappyPath(t *testing.T) {
	c := testCorrelator(t, time.Minute)
	nonce, cookie := issueNonce(t, c)
	require.True(t, validateRequest(c, cookie, nonce))
}

func TestCorrelationSingleUse(t *testing.T) {
	c := testCorrelator(t, time.Minute)
	nonce, cookie := issueNonce(t, c)

	require.True(t, validateRequest(c, cookie, nonce))
	// The record was consumed; a replay must fail.
	require.False(t, validateRequest(c, cookie, nonce))
}

func TestCorrelationNonceMismatch(t *testing.T) {
	c := testCorrelator(t, time.Minute)
	_, cookie := issueNonce(t, c)
	require.False(t, validateRequest(c, cookie, "some-other-nonce"))
	// Consumed by the failed attempt above.
	require.False(t, validateRequest(c, cookie, ""))
}

func TestCorrelationMissingCookie(t *testing.T) {
	c := testCorrelator(t, time.Minute)
	nonce, _ := issueNonce(t, c)
	require.False(t, validateRequest(c, nil, nonce))
}

func TestCorrelationExpiry(t *testing.T) {
	c := testCorrelator(t, 50*time.Millisecond)
	nonce, cookie := issueNonce(t, c)

	time.Sleep(80 * time.Millisecond)
	require.False(t, validateRequest(c, cookie, nonce))
}

func TestCorrelationFreshNonceEachIssue(t *testing.T) {
	c := testCorrelator(t, time.Minute)
	n1, _ := issueNonce(t, c)
	n2, _ := issueNonce(t, c)
	require.NotEqual(t, n1, n2)
}

func TestCorrelationValidateExpiresCookie(t *testing.T) {
	c := testCorrelator(t, time.Minute)
	nonce, cookie := issueNonce(t, c)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/signin-hellojohn", nil)
	r.AddCookie(cookie)
	require.True(t, c.validate(context.Background(), rec, r, nonce))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, c.cookieName, cleared[0].Name)
	require.Less(t, cleared[0].MaxAge, 0)
}

func TestMemoryCorrelationStore(t *testing.T) {
	s := NewMemoryCorrelationStore()
	ctx := context.Background()

	require.NoError(t, s.SaveNonce(ctx, "id1", "n1", time.Minute))

	got, err := s.ConsumeNonce(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, "n1", got)

	_, err = s.ConsumeNonce(ctx, "id1")
	require.ErrorIs(t, err, ErrNonceNotFound)

	_, err = s.ConsumeNonce(ctx, "never-existed")
	require.ErrorIs(t, err, ErrNonceNotFound)
}
