package signon

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dropDatabas3/signon/internal/observability/logger"
	"github.com/dropDatabas3/signon/internal/observability/metrics"
	"github.com/dropDatabas3/signon/internal/security/secretbox"
)

// Handler drives the authorization code flow for one provider integration.
// It owns no per-request state: the only carriers between the challenge and
// the callback are the sealed state blob and the correlation cookie, both
// held by the user agent.
type Handler struct {
	opts        Options
	protector   *secretbox.Protector
	correlator  *correlator
	backchannel *backchannel

	scopesOnce sync.Once
}

// New validates the options and builds a Handler. Configuration errors
// (missing client id/secret/state secret) are fatal: the host must not
// start without them.
func New(opts Options) (*Handler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	prot, err := secretbox.NewProtector(opts.StateSecret, statePurposePrefix+opts.AuthenticationType)
	if err != nil {
		return nil, err
	}

	h := &Handler{opts: opts, protector: prot}
	h.correlator = newCorrelator(&h.opts)
	h.backchannel = newBackchannel(&h.opts)
	return h, nil
}

// scopes applies the lazy default: an empty configured list becomes the
// single default scope at the first challenge.
func (h *Handler) scopes() []string {
	h.scopesOnce.Do(func() {
		if len(h.opts.Scopes) == 0 {
			h.opts.Scopes = []string{DefaultScope}
		}
	})
	return h.opts.Scopes
}

// pendingChallenge is the per-request slot the host writes through
// Challenge. The writer wrapper consumes it when downstream answers 401.
type pendingChallenge struct {
	mu    sync.Mutex
	props *Properties
	set   bool
}

func (p *pendingChallenge) request(props *Properties) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.props = props
	p.set = true
}

func (p *pendingChallenge) consume() (*Properties, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.set {
		return nil, false
	}
	p.set = false
	return p.props, true
}

type challengeKey struct{}

// Challenge requests an authorization redirect for this provider on the
// current request. The host calls it before responding 401; the middleware
// then replaces the 401 with a redirect to the provider. Returns false
// when no signon middleware is installed on the request.
func Challenge(ctx context.Context, props *Properties) bool {
	p, ok := ctx.Value(challengeKey{}).(*pendingChallenge)
	if !ok {
		return false
	}
	p.request(props)
	return true
}

// Middleware is the host-facing entry point. It intercepts exactly two
// kinds of requests: the configured callback path, and pass-through
// responses carrying a 401 with a pending challenge (any 401 in active
// mode). Everything else flows untouched.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == h.opts.CallbackPath {
			h.handleCallback(w, r)
			return
		}

		pending := &pendingChallenge{}
		r = r.WithContext(context.WithValue(r.Context(), challengeKey{}, pending))
		cw := &challengeWriter{ResponseWriter: w, h: h, r: r, pending: pending}
		next.ServeHTTP(cw, r)
	})
}

// challengeWriter watches for the downstream 401 that signals
// "authentication required" and swaps it for the authorization redirect.
type challengeWriter struct {
	http.ResponseWriter
	h       *Handler
	r       *http.Request
	pending *pendingChallenge

	wroteHeader bool
	intercepted bool
}

func (cw *challengeWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	if code == http.StatusUnauthorized {
		props, ok := cw.pending.consume()
		if !ok && cw.h.opts.Mode == ModeActive {
			props, ok = &Properties{RedirectURI: cw.r.URL.RequestURI()}, true
		}
		if ok {
			cw.wroteHeader = true
			cw.intercepted = true
			cw.h.challenge(cw.ResponseWriter, cw.r, props)
			return
		}
	}
	cw.wroteHeader = true
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *challengeWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.intercepted {
		// The downstream 401 body is replaced by the redirect.
		return len(b), nil
	}
	return cw.ResponseWriter.Write(b)
}

// challenge builds state and correlation and redirects to the provider.
// Repeating a challenge in the same flow just issues a fresh nonce and
// blob; older records age out of the store.
func (h *Handler) challenge(w http.ResponseWriter, r *http.Request, props *Properties) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Component("signon.handler"), logger.Op("challenge"))

	props = props.clone()
	if props == nil {
		props = &Properties{}
	}
	if props.RedirectURI == "" {
		props.RedirectURI = r.URL.RequestURI()
	}

	nonce, err := h.correlator.issue(ctx, w)
	if err != nil {
		log.Error("cannot issue correlation nonce", logger.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	promoted := promoteExtras(props, &h.opts)
	encoded, err := encodeState(props, nonce, h.protector)
	if err != nil {
		log.Error("cannot encode state", logger.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	authURL := buildAuthorizationURL(&h.opts, h.scopes(), encoded, h.callbackURI(r), promoted)
	metrics.ObserveChallenge(h.opts.AuthenticationType)
	log.Debug("issuing authorization redirect", logger.AuthType(h.opts.AuthenticationType))

	h.opts.Events.applyRedirect(w, r, authURL, props)
}

// handleCallback consumes the provider's redirect back. Fail closed: any
// unexpected panic is recovered and reported as a Failed outcome with
// whatever properties were already decoded; nothing partially authenticates.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Component("signon.handler"), logger.Op("callback"))

	var decoded *Properties
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic during callback processing", logger.Any("panic", rec))
			h.finish(w, r, OutcomeFailed, nil, decoded)
		}
	}()

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	q := r.URL.Query()
	states := q["state"]

	if errParam := strings.TrimSpace(q.Get("error")); errParam != "" {
		// Provider denial. Decode state only for its redirect target;
		// no identity is ever issued on this path.
		if len(states) == 1 {
			if p, _, err := decodeState(states[0], h.protector); err == nil {
				decoded = p
			}
		}
		log.Warn("provider denied authorization", logger.String("error", errParam))
		h.finish(w, r, OutcomeCancelled, nil, decoded)
		return
	}

	if len(states) != 1 {
		log.Warn("state parameter missing or repeated", logger.Int("count", len(states)))
		h.finish(w, r, OutcomeFailed, nil, nil)
		return
	}

	props, nonce, err := decodeState(states[0], h.protector)
	if err != nil {
		log.Warn("state decode failed", logger.Err(err))
		h.finish(w, r, OutcomeFailed, nil, nil)
		return
	}
	decoded = props

	if !h.correlator.validate(ctx, w, r, nonce) {
		log.Warn("correlation validation failed")
		h.finish(w, r, OutcomeFailed, nil, props)
		return
	}

	// A missing code is not rejected here; the exchange below fails for
	// lack of a code and is reported uniformly.
	code := strings.TrimSpace(q.Get("code"))

	tok, err := h.backchannel.exchangeCode(ctx, code, h.callbackURI(r))
	if err != nil {
		log.Warn("code exchange failed", logger.Err(err))
		h.finish(w, r, OutcomeFailed, nil, props)
		return
	}

	// Best effort: a missing profile still yields an identity with
	// token-derived fields only.
	prof := h.backchannel.fetchProfile(ctx, tok.UserID, tok.AccessToken)

	identity := assembleIdentity(tok, prof, h.opts.signInAsType(), props)

	if h.opts.Events.OnAuthenticated != nil {
		if err := h.opts.Events.OnAuthenticated(ctx, identity); err != nil {
			log.Warn("OnAuthenticated rejected identity", logger.Err(err))
			h.finish(w, r, OutcomeFailed, nil, props)
			return
		}
	}

	log.Info("authentication succeeded",
		logger.AuthType(identity.AuthenticationType),
		logger.UserID(identity.UserID()),
	)
	h.finish(w, r, OutcomeSucceeded, identity, identity.Properties)
}

// finish runs the return-endpoint hook and writes the terminal response:
// sign-in plus redirect on success, redirect-with-error or a bare 401
// otherwise.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, outcome Outcome, identity *Identity, props *Properties) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Component("signon.handler"), logger.Outcome(outcome.String()))
	metrics.ObserveCallback(h.opts.AuthenticationType, outcome.String())

	rc := &ReturnContext{Outcome: outcome, Identity: identity, Properties: props}
	if props != nil {
		rc.RedirectURI = props.RedirectURI
	}

	if h.opts.Events.OnReturnEndpoint != nil {
		if err := h.opts.Events.OnReturnEndpoint(ctx, rc); err != nil {
			log.Error("OnReturnEndpoint hook failed", logger.Err(err))
		}
		if rc.Handled {
			return
		}
	}

	if outcome == OutcomeSucceeded && rc.Identity != nil {
		if h.opts.SignIn != nil {
			if err := h.opts.SignIn(w, r, rc.Identity); err != nil {
				log.Error("host sign-in failed", logger.Err(err))
				h.redirectFailure(w, r, rc.RedirectURI)
				return
			}
		}
		if rc.RedirectURI != "" {
			http.Redirect(w, r, rc.RedirectURI, http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	h.redirectFailure(w, r, rc.RedirectURI)
}

// redirectFailure sends the user back to the original target with the
// generic failure indicator, or answers 401 when no target is known.
func (h *Handler) redirectFailure(w http.ResponseWriter, r *http.Request, target string) {
	if target == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	u, err := url.Parse(target)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	q := u.Query()
	q.Set("error", "access_denied")
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// callbackURI reconstructs the absolute callback URL the provider must
// redirect back to. It must match the token exchange's redirect_uri
// exactly.
func (h *Handler) callbackURI(r *http.Request) string {
	return requestScheme(r) + "://" + r.Host + h.opts.CallbackPath
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
