// ABOUTME: Mirrors identity-provider session changes into the credential store
// ABOUTME: Two states; entering either one overwrites or clears the stored tokens in one step
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harperreed/mbgctl/credentials"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Synchronizer keeps a credential store equal to the tokens of the active
// session, or empty when there is none. It never starts a login or refresh.
type Synchronizer struct {
	store  credentials.Store
	logger *slog.Logger

	mu    sync.Mutex
	state State
	err   error
}

func NewSynchronizer(store credentials.Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{store: store, logger: logger}
}

// Handle applies one session transition.
func (s *Synchronizer) Handle(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(sess)
}

func (s *Synchronizer) apply(sess *Session) error {
	var err error
	if sess.HasTokens() {
		err = s.store.Replace(credentials.Credential{
			AccessToken:  sess.AccessToken(),
			RefreshToken: sess.RefreshToken(),
		})
		s.state = Authenticated
		if err != nil {
			// The previous session's tokens must not outlive a failed rotation.
			if clearErr := s.store.Clear(); clearErr != nil {
				err = errors.Join(err, clearErr)
			}
			s.state = Unauthenticated
		}
	} else {
		err = s.store.Clear()
		s.state = Unauthenticated
	}

	if err != nil {
		err = fmt.Errorf("failed to mirror session into credential store: %w", err)
		s.logger.Error("session sync failed", "state", s.state.String(), "error", err)
	} else {
		s.logger.Debug("session synced", "state", s.state.String())
	}
	s.err = err
	return err
}

// Attach applies the provider's current session and follows later changes
// until the returned detach function is called.
func (s *Synchronizer) Attach(p Provider) (detach func(), err error) {
	unsubscribe := p.OnSessionChange(func(sess *Session) {
		_ = s.Handle(sess)
	})

	// Holding mu while reading Current queues any concurrent notification
	// behind this initial apply.
	s.mu.Lock()
	err = s.apply(p.Current())
	s.mu.Unlock()
	if err != nil {
		unsubscribe()
		return nil, err
	}
	return unsubscribe, nil
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the store error from the most recent transition, if any.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
