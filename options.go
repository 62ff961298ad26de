package signon

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"time"
)

// Fixed provider surface. The accounts service base URLs are configurable
// because HelloJohn is self-hosted; the paths are part of the wire contract.
const (
	DefaultAccountsBaseURL = "https://accounts.hellojohn.io"
	DefaultAPIBaseURL      = "https://api.hellojohn.io"

	authorizePath   = "/oauth2/authorize"
	tokenPath       = "/oauth2/token"
	userProfilePath = "/v2/user/profile"
)

// Defaults applied by New.
const (
	DefaultCallbackPath       = "/signin-hellojohn"
	DefaultAuthenticationType = "HelloJohn"
	DefaultScope              = "profile"
	DefaultBackchannelTimeout = 60 * time.Second
	DefaultCorrelationTTL     = 15 * time.Minute
)

// Mode controls when the middleware answers a downstream 401.
type Mode int

const (
	// ModePassive intercepts a 401 only when the host explicitly requested
	// this provider via Challenge. Default.
	ModePassive Mode = iota

	// ModeActive intercepts every downstream 401.
	ModeActive
)

// CertificateVerifier allows pinning or custom validation of the provider's
// backchannel TLS certificates. It receives the raw presented certificates
// and the verified chains, mirroring crypto/tls.Config.VerifyPeerCertificate.
type CertificateVerifier func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error

// SignInFunc is the host's session primitive. It receives the assembled
// identity after a successful callback and owns persistence (cookie,
// server-side session, JWT...). The middleware never stores the identity.
type SignInFunc func(w http.ResponseWriter, r *http.Request, identity *Identity) error

// Options configures a Handler. Construct once, treat as immutable.
type Options struct {
	// ClientID and ClientSecret are the credentials registered with the
	// accounts service. Both are required.
	ClientID     string
	ClientSecret string

	// StateSecret is the 32-byte application secret the state codec derives
	// its purpose-bound key from. Required. Generate with `signon keygen`.
	StateSecret []byte

	// CallbackPath is the exact path the provider redirects back to.
	// Default: /signin-hellojohn.
	CallbackPath string

	// Scopes requested at authorization time, comma-joined on the wire.
	// Defaults to the single "profile" scope, applied lazily at the first
	// challenge.
	Scopes []string

	// AppName and AppLogoURL are optional display hints shown on the
	// provider's consent screen. Caller extras with the same names win.
	AppName    string
	AppLogoURL string

	// AuthenticationType tags issued claims and scopes the state purpose
	// string and correlation cookie. Default: HelloJohn.
	AuthenticationType string

	// SignInAsAuthenticationType, when set, overrides the authentication
	// type the assembled identity is issued under.
	SignInAsAuthenticationType string

	// Mode selects passive (explicit challenge) or active (any 401)
	// interception. Default: passive.
	Mode Mode

	// AccountsBaseURL and APIBaseURL point at a self-hosted deployment.
	// Defaults target the hosted service.
	AccountsBaseURL string
	APIBaseURL      string

	// BackchannelTimeout bounds the token and profile calls. Default: 60s.
	// A timeout is reported like any other backchannel failure; no retry.
	BackchannelTimeout time.Duration

	// Transport optionally replaces the backchannel HTTP transport.
	Transport http.RoundTripper

	// CertificateVerifier optionally validates the provider's TLS
	// certificates. Ignored when Transport is set.
	CertificateVerifier CertificateVerifier

	// CorrelationStore keeps the single-use CSRF nonces. Defaults to an
	// in-process store; use store/redis or store/pg when the host runs
	// more than one replica.
	CorrelationStore CorrelationStore

	// CorrelationTTL bounds how long an issued nonce stays valid.
	// Default: 15 minutes.
	CorrelationTTL time.Duration

	// CookieSecure marks the correlation cookie Secure. Enable whenever
	// the host is served over HTTPS.
	CookieSecure bool

	// SignIn is the host's sign-in primitive, invoked once per successful
	// callback.
	SignIn SignInFunc

	// Events are the optional extension hooks.
	Events Events
}

// signInAsType resolves the authentication type identities are issued under.
func (o *Options) signInAsType() string {
	if o.SignInAsAuthenticationType != "" {
		return o.SignInAsAuthenticationType
	}
	return o.AuthenticationType
}

func (o *Options) authorizeEndpoint() string   { return o.AccountsBaseURL + authorizePath }
func (o *Options) tokenEndpoint() string       { return o.AccountsBaseURL + tokenPath }
func (o *Options) userProfileEndpoint() string { return o.APIBaseURL + userProfilePath }

// validate checks the mandatory fields. Called by New; errors here are
// fatal and must prevent startup.
func (o *Options) validate() error {
	if o.ClientID == "" {
		return ErrMissingClientID
	}
	if o.ClientSecret == "" {
		return ErrMissingClientSecret
	}
	if len(o.StateSecret) != 32 {
		return ErrMissingStateSecret
	}
	return nil
}

// applyDefaults fills everything except Scopes, which defaults lazily at
// the first challenge.
func (o *Options) applyDefaults() {
	if o.CallbackPath == "" {
		o.CallbackPath = DefaultCallbackPath
	}
	if o.AuthenticationType == "" {
		o.AuthenticationType = DefaultAuthenticationType
	}
	if o.AccountsBaseURL == "" {
		o.AccountsBaseURL = DefaultAccountsBaseURL
	}
	if o.APIBaseURL == "" {
		o.APIBaseURL = DefaultAPIBaseURL
	}
	if o.BackchannelTimeout <= 0 {
		o.BackchannelTimeout = DefaultBackchannelTimeout
	}
	if o.CorrelationTTL <= 0 {
		o.CorrelationTTL = DefaultCorrelationTTL
	}
	if o.CorrelationStore == nil {
		o.CorrelationStore = NewMemoryCorrelationStore()
	}
}

// httpClient builds the backchannel client from the transport options.
// The returned client is shared by all requests; pooled connections are
// safe for concurrent reuse.
func (o *Options) httpClient() *http.Client {
	transport := o.Transport
	if transport == nil && o.CertificateVerifier != nil {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				VerifyPeerCertificate: o.CertificateVerifier,
			},
		}
	}
	return &http.Client{
		Timeout:   o.BackchannelTimeout,
		Transport: transport,
	}
}
