// Package session holds the access token of a remote backend and refreshes
// it when the backend answers 401.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNoSession = errors.New("not logged in")
	// ErrExpired is returned when the refresh call itself was rejected; the
	// session is cleared and the user must log in again.
	ErrExpired = errors.New("session expired")
)

// Authenticator talks to the auth endpoints. The refresh credential lives
// with the implementation (a cookie jar for the HTTP client).
type Authenticator interface {
	Login(ctx context.Context, email, password string) (accessToken string, err error)
	Refresh(ctx context.Context) (accessToken string, err error)
	Logout(ctx context.Context) error
}

type Session struct {
	auth Authenticator

	mu    sync.RWMutex
	token string

	refreshes singleflight.Group
}

func New(auth Authenticator) *Session {
	return &Session{auth: auth}
}

// Acquire logs in and stores the returned access token.
func (s *Session) Acquire(ctx context.Context, email, password string) error {
	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.set(token)
	slog.InfoContext(ctx, "Session acquired", "email", email)
	return nil
}

// Token returns the current access token.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoSession
	}
	return s.token, nil
}

// SetToken installs a token obtained elsewhere, e.g. from the environment.
func (s *Session) SetToken(token string) {
	s.set(token)
}

// Refresh obtains a new access token. Callers that hit 401 at the same time
// share one refresh call and all receive its result. stale is the token the
// caller was rejected with; if another refresh already replaced it, the
// current token is returned without calling the backend.
func (s *Session) Refresh(ctx context.Context, stale string) (string, error) {
	s.mu.RLock()
	current := s.token
	s.mu.RUnlock()
	if current != "" && current != stale {
		return current, nil
	}

	v, err, shared := s.refreshes.Do("refresh", func() (any, error) {
		token, err := s.auth.Refresh(ctx)
		if err != nil {
			s.set("")
			return "", fmt.Errorf("%w: %w", ErrExpired, err)
		}
		s.set(token)
		return token, nil
	})
	if err != nil {
		slog.WarnContext(ctx, "Session refresh failed", "error", err, "shared", shared)
		return "", err
	}
	slog.DebugContext(ctx, "Session refreshed", "shared", shared)
	return v.(string), nil
}

// Clear logs out. The local token is dropped even if the backend call fails.
func (s *Session) Clear(ctx context.Context) error {
	defer s.set("")
	if err := s.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Session) set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}
