package signon

import (
	"encoding/json"

	"github.com/dropDatabas3/signon/internal/security/secretbox"
)

// statePurposePrefix versions the state codec's key derivation. Bump the
// version segment whenever the wire layout of stateWire changes; old blobs
// then fail closed instead of being misparsed.
const statePurposePrefix = "signon:state:v1:"

// Properties is the caller-visible part of the state bag carried through
// the authorization round trip. It is created at challenge time, travels
// encrypted inside the `state` query parameter, and is decoded exactly once
// at callback time. It is never persisted.
type Properties struct {
	// RedirectURI is where the user should land after sign-in completes.
	RedirectURI string

	// Extras are arbitrary caller-supplied key/value pairs. Extras matching
	// recognized authorization parameters (appName, appLogoUrl) are promoted
	// to query parameters at challenge time and removed from the bag.
	Extras map[string]string
}

// clone returns a deep copy so hooks can mutate without aliasing.
func (p *Properties) clone() *Properties {
	if p == nil {
		return nil
	}
	out := &Properties{RedirectURI: p.RedirectURI}
	if p.Extras != nil {
		out.Extras = make(map[string]string, len(p.Extras))
		for k, v := range p.Extras {
			out.Extras[k] = v
		}
	}
	return out
}

// stateWire is the sealed JSON layout. Short keys keep the blob small:
// it has to fit in a query parameter round-tripped by the provider.
type stateWire struct {
	RedirectURI string            `json:"r,omitempty"`
	Correlation string            `json:"c,omitempty"`
	Extras      map[string]string `json:"x,omitempty"`
}

// encodeState seals the bag plus the correlation nonce into an opaque,
// URL-safe blob. Only the issuing process can decode it.
func encodeState(p *Properties, correlation string, prot *secretbox.Protector) (string, error) {
	w := stateWire{Correlation: correlation}
	if p != nil {
		w.RedirectURI = p.RedirectURI
		if len(p.Extras) > 0 {
			w.Extras = p.Extras
		}
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return prot.Seal(raw)
}

// decodeState opens a blob produced by encodeState. Fail closed: any
// tampered, truncated or malformed input yields ErrStateInvalid and no
// partial bag.
func decodeState(blob string, prot *secretbox.Protector) (*Properties, string, error) {
	raw, err := prot.Open(blob)
	if err != nil {
		return nil, "", ErrStateInvalid
	}
	var w stateWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, "", ErrStateInvalid
	}
	p := &Properties{RedirectURI: w.RedirectURI, Extras: w.Extras}
	return p, w.Correlation, nil
}
