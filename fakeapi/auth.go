// ABOUTME: Token issuing for the fake backend: signed JWT access tokens and opaque refresh tokens
// ABOUTME: Refresh tokens rotate on use so a replayed refresh token is rejected
package fakeapi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harperreed/mbgctl/models"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Claims carried by access tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type account struct {
	password string
	user     models.User
}

type issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time

	mu       sync.Mutex
	accounts map[string]account
	refresh  map[string]string
}

func newIssuer(secret string, lifetime time.Duration) *issuer {
	return &issuer{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
		accounts: make(map[string]account),
		refresh:  make(map[string]string),
	}
}

func (i *issuer) addUser(password string, user models.User) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if user.ID == "" {
		user.ID = newID()
	}
	i.accounts[user.Email] = account{password: password, user: user}
}

func (i *issuer) login(email, password string) (*authResponse, error) {
	i.mu.Lock()
	acct, ok := i.accounts[email]
	i.mu.Unlock()
	if !ok || acct.password != password {
		return nil, ErrInvalidCredentials
	}
	return i.issue(acct.user)
}

// exchange consumes a refresh token and issues a new pair.
func (i *issuer) exchange(refreshToken string) (*authResponse, error) {
	i.mu.Lock()
	email, ok := i.refresh[refreshToken]
	if ok {
		delete(i.refresh, refreshToken)
	}
	acct, known := i.accounts[email]
	i.mu.Unlock()

	if !ok || !known {
		return nil, ErrInvalidToken
	}
	return i.issue(acct.user)
}

func (i *issuer) issue(user models.User) (*authResponse, error) {
	now := i.now()
	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        newID(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh := newID()
	i.mu.Lock()
	i.refresh[refresh] = user.Email
	i.mu.Unlock()

	u := user
	return &authResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(i.lifetime / time.Second),
		User:         &u,
	}, nil
}

func (i *issuer) validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *issuer) reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.refresh = make(map[string]string)
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         *models.User `json:"user"`
}
