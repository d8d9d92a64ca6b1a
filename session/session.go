// ABOUTME: Session value and the provider subscription contract
// ABOUTME: A session pairs an oauth2 token with the signed-in user
package session

import (
	"golang.org/x/oauth2"

	"github.com/harperreed/mbgctl/models"
)

// Session is what the identity provider currently holds. A nil *Session means
// nobody is signed in.
type Session struct {
	Token *oauth2.Token `json:"token"`
	User  *models.User  `json:"user,omitempty"`
}

func (s *Session) AccessToken() string {
	if s == nil || s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

func (s *Session) RefreshToken() string {
	if s == nil || s.Token == nil {
		return ""
	}
	return s.Token.RefreshToken
}

// HasTokens reports whether the session issued an access token.
func (s *Session) HasTokens() bool {
	return s.AccessToken() != ""
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{}
	if s.Token != nil {
		tok := *s.Token
		out.Token = &tok
	}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// Provider is an identity provider that announces session changes.
type Provider interface {
	Current() *Session
	// OnSessionChange registers handler and returns a function that removes it.
	OnSessionChange(handler func(*Session)) (unsubscribe func())
}
