package signon

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/signon/internal/security/secretbox"
)

func testProtector(t *testing.T) *secretbox.Protector {
	t.Helper()
	master := make([]byte, 32)
	for i := range master {
		master[i] = byte(i * 7)
	}
	p, err := secretbox.NewProtector(master, statePurposePrefix+DefaultAuthenticationType)
	require.NoError(t, err)
	return p
}

func TestStateRoundTrip(t *testing.T) {
	prot := testProtector(t)

	cases := []struct {
		name  string
		props *Properties
		corr  string
	}{
		{"minimal", &Properties{}, "nonce-1"},
		{"redirect only", &Properties{RedirectURI: "/dashboard?tab=keys"}, "nonce-2"},
		{
			"with extras",
			&Properties{
				RedirectURI: "https://app.example/after",
				Extras: map[string]string{
					"display": "full",
					"plan":    "team",
					"odd key": "value with spaces & symbols ~!@#$%^*()",
				},
			},
			"nonce-3",
		},
		{"nil properties", nil, "nonce-4"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blob, err := encodeState(tc.props, tc.corr, prot)
			require.NoError(t, err)

			props, corr, err := decodeState(blob, prot)
			require.NoError(t, err)
			require.Equal(t, tc.corr, corr)

			if tc.props == nil {
				require.Empty(t, props.RedirectURI)
				require.Empty(t, props.Extras)
				return
			}
			require.Equal(t, tc.props.RedirectURI, props.RedirectURI)
			if len(tc.props.Extras) > 0 {
				require.Equal(t, tc.props.Extras, props.Extras)
			} else {
				require.Empty(t, props.Extras)
			}
		})
	}
}

func TestStateTamperDetection(t *testing.T) {
	prot := testProtector(t)

	blob, err := encodeState(&Properties{RedirectURI: "/private"}, "nonce", prot)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(blob)
	require.NoError(t, err)

	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01

		_, _, err := decodeState(base64.RawURLEncoding.EncodeToString(mutated), prot)
		require.ErrorIs(t, err, ErrStateInvalid, "flipped byte %d", i)
	}
}

func TestStateDecodeFailClosed(t *testing.T) {
	prot := testProtector(t)

	for _, blob := range []string{"", "garbage", "AAAAAA", "%%%not-base64%%%"} {
		props, corr, err := decodeState(blob, prot)
		require.ErrorIs(t, err, ErrStateInvalid)
		require.Nil(t, props)
		require.Empty(t, corr)
	}
}

func TestStateKeyIsolationBetweenAuthTypes(t *testing.T) {
	master := make([]byte, 32)
	p1, err := secretbox.NewProtector(master, statePurposePrefix+"HelloJohn")
	require.NoError(t, err)
	p2, err := secretbox.NewProtector(master, statePurposePrefix+"HelloJohnStaging")
	require.NoError(t, err)

	blob, err := encodeState(&Properties{RedirectURI: "/x"}, "n", p1)
	require.NoError(t, err)

	_, _, err = decodeState(blob, p2)
	require.ErrorIs(t, err, ErrStateInvalid)
}

func TestPropertiesClone(t *testing.T) {
	orig := &Properties{
		RedirectURI: "/a",
		Extras:      map[string]string{"k": "v"},
	}
	cp := orig.clone()
	cp.RedirectURI = "/b"
	cp.Extras["k"] = "changed"

	require.Equal(t, "/a", orig.RedirectURI)
	require.Equal(t, "v", orig.Extras["k"])

	var nilProps *Properties
	require.Nil(t, nilProps.clone())
}
