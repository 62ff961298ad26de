package signon

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAuthorizationURL_WireParams(t *testing.T) {
	opts := &Options{
		ClientID:        "cid",
		AccountsBaseURL: "https://accounts.internal",
		AppName:         "Demo App",
		AppLogoURL:      "https://demo.example/logo.png",
	}

	raw := buildAuthorizationURL(opts, []string{"profile", "email"}, "BLOB", "https://app.example/signin-hellojohn", map[string]string{
		paramAppName:    opts.AppName,
		paramAppLogoURL: opts.AppLogoURL,
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "https", u.Scheme)
	require.Equal(t, "accounts.internal", u.Host)
	require.Equal(t, authorizePath, u.Path)

	q := u.Query()
	require.Equal(t, "code", q.Get("responseType"))
	require.Equal(t, "cid", q.Get("clientId"))
	require.Equal(t, "https://app.example/signin-hellojohn", q.Get("redirectUri"))
	require.Equal(t, "profile,email", q.Get("scope"))
	require.Equal(t, "Demo App", q.Get("appName"))
	require.Equal(t, "https://demo.example/logo.png", q.Get("appLogoUrl"))
	require.Equal(t, "BLOB", q.Get("state"))
}

func TestBuildAuthorizationURL_OmitsEmptyDisplayHints(t *testing.T) {
	opts := &Options{ClientID: "cid", AccountsBaseURL: "https://accounts.internal"}
	raw := buildAuthorizationURL(opts, []string{"profile"}, "BLOB", "https://app.example/cb", map[string]string{})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.False(t, q.Has("appName"))
	require.False(t, q.Has("appLogoUrl"))
	require.Equal(t, "profile", q.Get("scope"))
}

func TestPromoteExtras_CallerWinsOverConfig(t *testing.T) {
	opts := &Options{AppName: "Configured", AppLogoURL: "https://cfg.example/logo.png"}
	p := &Properties{Extras: map[string]string{
		paramAppName: "Per Request",
		"theme":      "dark",
	}}

	promoted := promoteExtras(p, opts)
	require.Equal(t, "Per Request", promoted[paramAppName])
	require.Equal(t, "https://cfg.example/logo.png", promoted[paramAppLogoURL])

	// The promoted key leaves the bag; unrelated extras stay.
	require.NotContains(t, p.Extras, paramAppName)
	require.Equal(t, "dark", p.Extras["theme"])
}

func TestPromoteExtras_NilProperties(t *testing.T) {
	opts := &Options{AppName: "Configured"}
	promoted := promoteExtras(nil, opts)
	require.Equal(t, "Configured", promoted[paramAppName])
	require.Empty(t, promoted[paramAppLogoURL])
}
