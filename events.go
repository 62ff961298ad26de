package signon

import (
	"context"
	"net/http"
)

// Outcome is the terminal state of one callback.
type Outcome int

const (
	// OutcomeSucceeded: tokens obtained, identity assembled and signed in.
	OutcomeSucceeded Outcome = iota

	// OutcomeFailed: any flow-local failure (bad state, CSRF mismatch,
	// exchange failure). Surfaced to the user as a generic access_denied.
	OutcomeFailed

	// OutcomeCancelled: the provider returned an error parameter (the user
	// declined). No identity, but the redirect target is preserved.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// ReturnContext is handed to OnReturnEndpoint at the very end of callback
// processing. The hook may override the redirect target or take over the
// response entirely.
type ReturnContext struct {
	Outcome Outcome

	// Identity is non-nil only when Outcome is OutcomeSucceeded.
	Identity *Identity

	// Properties is the decoded state bag, possibly nil when decoding
	// failed.
	Properties *Properties

	// RedirectURI is where the handler will send the user next. The hook
	// may rewrite it; an empty value suppresses the redirect.
	RedirectURI string

	// Handled, when set by the hook, tells the handler the response has
	// been written and nothing further should happen.
	Handled bool
}

// Events are the pluggable extension points of the flow. All fields are
// optional; the zero value gives the documented default behavior.
type Events struct {
	// OnAuthenticated runs after token exchange and profile retrieval,
	// before sign-in. It may inspect or mutate the identity and its
	// properties. A non-nil error aborts the flow as Failed.
	OnAuthenticated func(ctx context.Context, identity *Identity) error

	// OnReturnEndpoint runs at the very end of callback processing for
	// every outcome. See ReturnContext.
	OnReturnEndpoint func(ctx context.Context, rc *ReturnContext) error

	// OnApplyRedirect performs the redirect to the provider's
	// authorization URL. Default: an immediate 302.
	OnApplyRedirect func(w http.ResponseWriter, r *http.Request, authorizationURL string, props *Properties)
}

// applyRedirect runs the hook or the default immediate redirect.
func (e Events) applyRedirect(w http.ResponseWriter, r *http.Request, authorizationURL string, props *Properties) {
	if e.OnApplyRedirect != nil {
		e.OnApplyRedirect(w, r, authorizationURL, props)
		return
	}
	http.Redirect(w, r, authorizationURL, http.StatusFound)
}
