package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	signon "github.com/dropDatabas3/signon"
	"github.com/dropDatabas3/signon/internal/config"
	"github.com/dropDatabas3/signon/internal/observability/logger"
)

// sessionManager is the demo host's sign-in primitive: it folds the
// assembled identity into a signed JWT session cookie. A real host would
// plug in whatever session machinery it already has.
type sessionManager struct {
	cookieName string
	secret     []byte
	ttl        time.Duration
	secure     bool
}

type sessionClaims struct {
	UserID   string `json:"uid,omitempty"`
	Username string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	jwtv5.RegisteredClaims
}

func newSessionManager(cfg *config.Config) (*sessionManager, error) {
	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("session.secret is not set (env SIGNON_SESSION_SECRET)")
	}
	return &sessionManager{
		cookieName: cfg.Session.CookieName,
		secret:     []byte(cfg.Session.Secret),
		ttl:        cfg.SessionTTL(),
		secure:     cfg.Provider.CookieSecure,
	}, nil
}

// SignIn satisfies signon.SignInFunc.
func (s *sessionManager) SignIn(w http.ResponseWriter, r *http.Request, identity *signon.Identity) error {
	now := time.Now().UTC()
	claims := sessionClaims{
		UserID:   identity.UserID(),
		Username: identity.Username(),
		Email:    identity.Email(),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    "signon-demo",
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// current returns the session claims for the request, or nil.
func (s *sessionManager) current(r *http.Request) *sessionClaims {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	var claims sessionClaims
	tk, err := jwtv5.ParseWithClaims(cookie.Value, &claims,
		func(t *jwtv5.Token) (any, error) { return s.secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !tk.Valid {
		return nil
	}
	return &claims
}

func (s *sessionManager) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func registerRoutes(r chi.Router, sessions *sessionManager) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		if claims := sessions.current(req); claims != nil {
			fmt.Fprintf(w, "signed in as %s (%s)\n", claims.Username, claims.UserID)
			return
		}
		fmt.Fprintln(w, "not signed in; visit /me")
	})

	// Protected endpoint: challenges the middleware when unauthenticated.
	r.Get("/me", func(w http.ResponseWriter, req *http.Request) {
		claims := sessions.current(req)
		if claims == nil {
			signon.Challenge(req.Context(), &signon.Properties{
				RedirectURI: req.URL.RequestURI(),
				Extras:      map[string]string{"appName": "signon demo"},
			})
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(claims); err != nil {
			logger.From(req.Context()).Warn("encode session claims", logger.Err(err))
		}
	})

	r.Get("/logout", func(w http.ResponseWriter, req *http.Request) {
		sessions.clear(w)
		http.Redirect(w, req, "/", http.StatusFound)
	})
}
