package signon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeProfileEndpoint(t *testing.T, status int, body string) *backchannel {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	opts := &Options{ClientID: "cid", ClientSecret: "shh", AccountsBaseURL: srv.URL, APIBaseURL: srv.URL}
	opts.applyDefaults()
	return newBackchannel(opts)
}

func TestFetchProfile_HappyPath(t *testing.T) {
	var gotPath, gotUserID, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUserID = r.URL.Query().Get("userId")
		gotToken = r.URL.Query().Get("accessToken")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username":"alice","emailId":"a@x.com","firstName":"Alice","lastName":"Ng"}`))
	}))
	defer srv.Close()

	opts := &Options{ClientID: "cid", ClientSecret: "shh", AccountsBaseURL: srv.URL, APIBaseURL: srv.URL}
	opts.applyDefaults()
	bc := newBackchannel(opts)

	p := bc.fetchProfile(context.Background(), "42", "abc")
	require.NotNil(t, p)
	require.Equal(t, userProfilePath, gotPath)
	require.Equal(t, "42", gotUserID)
	require.Equal(t, "abc", gotToken)
	require.Equal(t, &Profile{Username: "alice", Email: "a@x.com", FirstName: "Alice", LastName: "Ng"}, p)
}

func TestFetchProfile_NonOKIsNil(t *testing.T) {
	bc := fakeProfileEndpoint(t, http.StatusForbidden, `{"error":"denied"}`)
	require.Nil(t, bc.fetchProfile(context.Background(), "42", "abc"))
}

func TestFetchProfile_BadJSONIsNil(t *testing.T) {
	bc := fakeProfileEndpoint(t, http.StatusOK, `{broken`)
	require.Nil(t, bc.fetchProfile(context.Background(), "42", "abc"))
}

func TestFetchProfile_TransportErrorIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	opts := &Options{ClientID: "cid", ClientSecret: "shh", AccountsBaseURL: srv.URL, APIBaseURL: srv.URL}
	opts.applyDefaults()
	bc := newBackchannel(opts)
	require.Nil(t, bc.fetchProfile(context.Background(), "42", "abc"))
}
