package signon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/signon/internal/observability/logger"
	"github.com/dropDatabas3/signon/internal/observability/metrics"
)

// TokenResponse is the parsed result of the code exchange. Consumed
// immediately by the profile fetch and identity assembly; never persisted.
type TokenResponse struct {
	AccessToken  string
	ExpiresIn    time.Duration // zero when absent or unparsable
	RefreshToken string
	Scopes       []string // parsed from scope.bearerPermissions, empty if absent
	UserID       string   // from scope.user, empty if absent
}

// Wire layout of the token endpoint response. expires_in and scope.user
// arrive as number or string depending on the provider version, hence the
// raw messages.
type tokenWire struct {
	AccessToken  string          `json:"access_token"`
	ExpiresIn    json.RawMessage `json:"expires_in"`
	RefreshToken string          `json:"refresh_token"`
	Scope        *tokenScopeWire `json:"scope"`
}

type tokenScopeWire struct {
	BearerPermissions string          `json:"bearerPermissions"`
	User              json.RawMessage `json:"user"`
}

type tokenRequestWire struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
}

// backchannel groups the two provider-facing HTTP calls behind one pooled
// client. Safe for concurrent use.
type backchannel struct {
	client *http.Client
	opts   *Options
}

func newBackchannel(opts *Options) *backchannel {
	return &backchannel{client: opts.httpClient(), opts: opts}
}

// exchangeCode trades an authorization code for tokens. Single attempt:
// transport errors, timeouts and non-2xx statuses all wrap
// ErrExchangeFailed; a 2xx without access_token is ErrMissingAccessToken.
func (b *backchannel) exchangeCode(ctx context.Context, code, callbackURI string) (*TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("backchannel"), logger.Op("exchangeCode"))
	start := time.Now()
	defer func() { metrics.ObserveBackchannel("token", time.Since(start)) }()

	body, err := json.Marshal(tokenRequestWire{
		GrantType:    "authorization_code",
		ClientID:     b.opts.ClientID,
		ClientSecret: b.opts.ClientSecret,
		Code:         code,
		RedirectURI:  callbackURI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.opts.tokenEndpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		log.Warn("token endpoint unreachable", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		log.Warn("token endpoint error", logger.Status(resp.StatusCode))
		return nil, fmt.Errorf("%w: token http %d", ErrExchangeFailed, resp.StatusCode)
	}

	var tw tokenWire
	if err := json.NewDecoder(resp.Body).Decode(&tw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExchangeFailed, err)
	}
	if tw.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	tr := &TokenResponse{
		AccessToken:  tw.AccessToken,
		RefreshToken: tw.RefreshToken,
		ExpiresIn:    parseExpiresIn(tw.ExpiresIn),
		Scopes:       []string{},
	}
	if tw.Scope != nil {
		tr.Scopes = splitScopeList(tw.Scope.BearerPermissions)
		tr.UserID = rawToString(tw.Scope.User)
	}
	return tr, nil
}

// parseExpiresIn tolerates a numeric-as-string field; anything unparsable
// leaves the expiry unset rather than failing the exchange.
func parseExpiresIn(raw json.RawMessage) time.Duration {
	s := rawToString(raw)
	if s == "" {
		return 0
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// rawToString normalizes a JSON value that may be a string or a number.
func rawToString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}

// splitScopeList parses the comma-separated bearerPermissions field.
func splitScopeList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
