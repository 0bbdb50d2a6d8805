// Package session owns the client side authentication state: the bearer
// token, the user profile it belongs to and the operations that change them.
package session

import (
	"errors"
	"sync"

	"github.com/ledgerbook/client/internal/models"
)

var ErrNoToken = errors.New("no session token")

// Session holds the current token and user. A user is only ever held
// together with a token; clearing drops both.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

func New() *Session {
	return &Session{}
}

// Token satisfies api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

func (s *Session) IsAuthenticated() bool {
	return len(s.Token()) > 0
}

func (s *Session) HasUser() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// SetToken replaces the token. Any user loaded for a previous token is
// dropped since it may not belong to the new one.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		s.user = nil
	}
	s.token = token
}

func (s *Session) SetUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.token) == 0 {
		return ErrNoToken
	}
	if user == nil {
		s.user = nil
		return nil
	}
	copied := *user
	s.user = &copied
	return nil
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}
