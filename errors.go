package signon

import "errors"

// Configuration errors. Fatal at construction time.
var (
	ErrMissingClientID     = errors.New("signon: client id is required")
	ErrMissingClientSecret = errors.New("signon: client secret is required")
	ErrMissingStateSecret  = errors.New("signon: state secret is required (32 bytes)")
)

// Flow-local errors. These never escape the handler: they are logged and
// converted into a Failed outcome.
var (
	// ErrStateInvalid covers any malformed, truncated or tampered state blob.
	ErrStateInvalid = errors.New("signon: invalid state")

	// ErrCorrelationFailed means the CSRF nonce was missing, expired,
	// already used, or did not match the one in the state bag.
	ErrCorrelationFailed = errors.New("signon: correlation check failed")

	// ErrExchangeFailed covers transport errors, timeouts and non-2xx
	// responses from the token endpoint. Single attempt, no retry.
	ErrExchangeFailed = errors.New("signon: code exchange failed")

	// ErrMissingAccessToken means the token endpoint answered 2xx but the
	// response carried no access token.
	ErrMissingAccessToken = errors.New("signon: token response has no access token")

	// ErrNonceNotFound is returned by CorrelationStore implementations when
	// no record exists for the given id (absent, expired or consumed).
	ErrNonceNotFound = errors.New("signon: correlation nonce not found")
)
