// ABOUTME: Test helper that runs the fake backend on a local listener
// ABOUTME: Returns an api client whose credential store already holds admin tokens
package fakeapi

import (
	"net/http/httptest"
	"testing"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/credentials"
)

// TestEnv is a running fake backend plus a signed-in client.
type TestEnv struct {
	Server *Server
	URL    string
	Store  *credentials.MemoryStore
	Client *api.Client
}

// NewTestEnv starts the backend and signs the default admin in. Everything is
// torn down with the test.
func NewTestEnv(t testing.TB, opts ...Option) *TestEnv {
	t.Helper()

	backend := New(opts...)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	store := credentials.NewMemoryStore()
	client, err := api.New(srv.URL+BasePath, store)
	if err != nil {
		t.Fatalf("failed to create api client: %v", err)
	}

	resp, err := backend.issuer.login(DefaultEmail, DefaultPassword)
	if err != nil {
		t.Fatalf("failed to sign in: %v", err)
	}
	if err := store.Replace(credentials.Credential{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		t.Fatalf("failed to store tokens: %v", err)
	}

	return &TestEnv{Server: backend, URL: srv.URL + BasePath, Store: store, Client: client}
}
