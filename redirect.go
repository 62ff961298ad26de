package signon

import (
	"net/url"
	"strings"
)

// Recognized extras: caller-supplied entries under these keys are promoted
// to first-class authorization parameters and removed from the state bag so
// they are not duplicated inside the opaque blob.
const (
	paramAppName    = "appName"
	paramAppLogoURL = "appLogoUrl"
)

// promoteExtras pulls recognized parameters out of the extras map, falling
// back to the configured display hints. Mutates p.Extras.
func promoteExtras(p *Properties, opts *Options) map[string]string {
	promoted := map[string]string{
		paramAppName:    opts.AppName,
		paramAppLogoURL: opts.AppLogoURL,
	}
	if p == nil || p.Extras == nil {
		return promoted
	}
	for _, key := range []string{paramAppName, paramAppLogoURL} {
		if v, ok := p.Extras[key]; ok {
			promoted[key] = v
			delete(p.Extras, key)
		}
	}
	return promoted
}

// buildAuthorizationURL constructs the provider's authorization endpoint
// URL. Wire contract: responseType=code, clientId, redirectUri, scope
// (comma-joined), optional appName/appLogoUrl, and the sealed state blob.
func buildAuthorizationURL(opts *Options, scopes []string, encodedState, callbackURI string, promoted map[string]string) string {
	u, _ := url.Parse(opts.authorizeEndpoint())
	q := u.Query()
	q.Set("responseType", "code")
	q.Set("clientId", opts.ClientID)
	q.Set("redirectUri", callbackURI)
	q.Set("scope", strings.Join(scopes, ","))
	if v := promoted[paramAppName]; v != "" {
		q.Set(paramAppName, v)
	}
	if v := promoted[paramAppLogoURL]; v != "" {
		q.Set(paramAppLogoURL, v)
	}
	q.Set("state", encodedState)
	u.RawQuery = q.Encode()
	return u.String()
}
