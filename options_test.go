package signon

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	secret := bytes.Repeat([]byte{0xAB}, 32)

	cases := []struct {
		name string
		opts Options
		want error
	}{
		{"missing client id", Options{ClientSecret: "s", StateSecret: secret}, ErrMissingClientID},
		{"missing client secret", Options{ClientID: "c", StateSecret: secret}, ErrMissingClientSecret},
		{"missing state secret", Options{ClientID: "c", ClientSecret: "s"}, ErrMissingStateSecret},
		{"short state secret", Options{ClientID: "c", ClientSecret: "s", StateSecret: []byte("short")}, ErrMissingStateSecret},
		{"valid", Options{ClientID: "c", ClientSecret: "s", StateSecret: secret}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.validate()
			if tc.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, ErrMissingClientID)
}

func TestOptionsDefaults(t *testing.T) {
	o := &Options{ClientID: "c", ClientSecret: "s"}
	o.applyDefaults()

	require.Equal(t, DefaultCallbackPath, o.CallbackPath)
	require.Equal(t, DefaultAuthenticationType, o.AuthenticationType)
	require.Equal(t, DefaultAccountsBaseURL, o.AccountsBaseURL)
	require.Equal(t, DefaultAPIBaseURL, o.APIBaseURL)
	require.Equal(t, DefaultBackchannelTimeout, o.BackchannelTimeout)
	require.Equal(t, DefaultCorrelationTTL, o.CorrelationTTL)
	require.NotNil(t, o.CorrelationStore)
	require.Equal(t, ModePassive, o.Mode)

	// Scopes stay nil here; the single default scope is applied lazily at
	// the first challenge.
	require.Nil(t, o.Scopes)
}

func TestOptionsDefaultsKeepExplicitValues(t *testing.T) {
	store := NewMemoryCorrelationStore()
	o := &Options{
		ClientID:           "c",
		ClientSecret:       "s",
		CallbackPath:       "/auth/return",
		AuthenticationType: "Custom",
		AccountsBaseURL:    "https://accounts.internal",
		APIBaseURL:         "https://api.internal",
		BackchannelTimeout: 5 * time.Second,
		CorrelationTTL:     time.Minute,
		CorrelationStore:   store,
	}
	o.applyDefaults()

	require.Equal(t, "/auth/return", o.CallbackPath)
	require.Equal(t, "Custom", o.AuthenticationType)
	require.Equal(t, "https://accounts.internal", o.AccountsBaseURL)
	require.Equal(t, "https://api.internal", o.APIBaseURL)
	require.Equal(t, 5*time.Second, o.BackchannelTimeout)
	require.Equal(t, time.Minute, o.CorrelationTTL)
	require.Same(t, store, o.CorrelationStore)
}

func TestSignInAsType(t *testing.T) {
	o := &Options{AuthenticationType: "HelloJohn"}
	require.Equal(t, "HelloJohn", o.signInAsType())

	o.SignInAsAuthenticationType = "Corporate"
	require.Equal(t, "Corporate", o.signInAsType())
}

func TestEndpointComposition(t *testing.T) {
	o := &Options{AccountsBaseURL: "https://accounts.internal", APIBaseURL: "https://api.internal"}
	require.Equal(t, "https://accounts.internal/oauth2/authorize", o.authorizeEndpoint())
	require.Equal(t, "https://accounts.internal/oauth2/token", o.tokenEndpoint())
	require.Equal(t, "https://api.internal/v2/user/profile", o.userProfileEndpoint())
}
