package signon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/dropDatabas3/signon/internal/observability/logger"
	"github.com/dropDatabas3/signon/internal/observability/metrics"
)

// Profile is the provider's user-info payload. Every field is optional;
// an absent field simply produces no claim.
type Profile struct {
	Username  string `json:"username"`
	Email     string `json:"emailId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// fetchProfile retrieves the authenticated user's profile. Best effort:
// any failure (transport, non-2xx, bad JSON) yields nil and the flow
// continues with token-derived fields only.
func (b *backchannel) fetchProfile(ctx context.Context, userID, accessToken string) *Profile {
	log := logger.From(ctx).With(logger.Layer("backchannel"), logger.Op("fetchProfile"))
	start := time.Now()
	defer func() { metrics.ObserveBackchannel("profile", time.Since(start)) }()

	u, err := url.Parse(b.opts.userProfileEndpoint())
	if err != nil {
		log.Warn("bad profile endpoint", logger.Err(err))
		return nil
	}
	q := u.Query()
	q.Set("userId", userID)
	q.Set("accessToken", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		log.Warn("profile endpoint unreachable", logger.Err(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		log.Warn("profile endpoint error", logger.Status(resp.StatusCode))
		return nil
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		log.Warn("profile decode failed", logger.Err(err))
		return nil
	}
	return &p
}
