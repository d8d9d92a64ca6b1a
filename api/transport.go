// ABOUTME: Round-tripper that stamps default headers and the current bearer token
// ABOUTME: Reads the credential store on every request so rotated tokens apply immediately
package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/harperreed/mbgctl/credentials"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerRequestID     = "X-Request-ID"

	contentTypeJSON = "application/json"
)

// authTransport injects Authorization from the store at send time. A store
// without an access token produces a request with no Authorization header.
type authTransport struct {
	store   credentials.Store
	headers http.Header
	base    http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	for key, values := range t.headers {
		if out.Header.Get(key) == "" {
			for _, v := range values {
				out.Header.Add(key, v)
			}
		}
	}
	if out.Header.Get(headerContentType) == "" {
		out.Header.Set(headerContentType, contentTypeJSON)
	}
	if out.Header.Get(headerAccept) == "" {
		out.Header.Set(headerAccept, contentTypeJSON)
	}
	if out.Header.Get(headerRequestID) == "" {
		out.Header.Set(headerRequestID, uuid.NewString())
	}

	if token := t.store.Get().AccessToken; token != "" {
		out.Header.Set(headerAuthorization, "Bearer "+token)
	} else {
		out.Header.Del(headerAuthorization)
	}

	return t.base.RoundTrip(out)
}
