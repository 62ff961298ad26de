// Package signon implements "Sign in with HelloJohn" for Go web
// applications: the client side of the OAuth 2.0 authorization code flow
// against a HelloJohn accounts service.
//
// The Handler is installed as ordinary net/http middleware. When a
// downstream handler answers 401 with a pending Challenge, the middleware
// redirects the user to the provider's authorization endpoint carrying an
// encrypted state blob and a single-use CSRF correlation nonce. When the
// provider redirects back to the callback path, the middleware validates
// state and correlation, exchanges the code for tokens, fetches the user's
// profile best-effort, assembles a claim-based Identity and hands it to the
// host's SignIn func. Failures and cancellations send the user back to the
// original target with error=access_denied.
//
// Minimal wiring:
//
//	h, err := signon.New(signon.Options{
//		ClientID:     cfg.ClientID,
//		ClientSecret: cfg.ClientSecret,
//		StateSecret:  secret, // 32 bytes, `signon keygen`
//		SignIn:       sessions.SignIn,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	router.Use(h.Middleware)
//
// and in a protected handler:
//
//	signon.Challenge(r.Context(), &signon.Properties{RedirectURI: r.URL.RequestURI()})
//	w.WriteHeader(http.StatusUnauthorized)
package signon
