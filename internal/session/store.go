package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerbook/client/internal/api"
	"github.com/ledgerbook/client/internal/events"
	"github.com/ledgerbook/client/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	TokenEndpoint       = "/auth/token/"
	RegisterEndpoint    = "/auth/register/"
	CurrentUserEndpoint = "/users/me"
)

var errEmptyToken = errors.New("token endpoint returned no access token")

// Requester is the part of the API client the store needs.
type Requester interface {
	Get(ctx context.Context, path string, result any) error
	Post(ctx context.Context, path string, body any, result any) error
	PostForm(ctx context.Context, path string, form map[string]string, result any) error
}

// Store is the single authority for authentication state. Only the store
// mutates the session; the token is mirrored into the TokenStore.
type Store struct {
	session *Session
	client  Requester
	tokens  TokenStore
	bus     *events.Bus
}

func NewStore(sess *Session, client Requester, tokens TokenStore, bus *events.Bus) *Store {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}

	store := &Store{
		session: sess,
		client:  client,
		tokens:  tokens,
		bus:     bus,
	}

	if bus != nil {
		bus.Subscribe(events.Unauthorized, store.onUnauthorized)
	}

	return store
}

func (s *Store) onUnauthorized(ctx context.Context, event events.Event) error {
	if !s.session.IsAuthenticated() {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"path": event.Path,
	}).Infoln("Session rejected by server, logging out")

	s.Logout(ctx)
	return nil
}

func (s *Store) Session() *Session {
	return s.session
}

func (s *Store) Token() string {
	return s.session.Token()
}

func (s *Store) User() *models.User {
	return s.session.User()
}

func (s *Store) IsAuthenticated() bool {
	return s.session.IsAuthenticated()
}

func (s *Store) HasUser() bool {
	return s.session.HasUser()
}

func (s *Store) Claims() (*Claims, error) {
	return ParseClaims(s.session.Token())
}

// Init restores a persisted token and reconciles it with the server before
// returning, so the first guarded navigation sees the real state.
func (s *Store) Init(ctx context.Context) error {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted token: %w", err)
	}

	if len(token) == 0 {
		logrus.Debugln("No persisted token found")
		return nil
	}

	s.session.SetToken(token)

	if !s.ValidateToken(ctx) {
		logrus.Infoln("Persisted token is no longer valid")
	}

	return nil
}

// Login exchanges credentials for a token, persists it and loads the
// user profile. The returned error is an *AuthError.
func (s *Store) Login(ctx context.Context, username string, password string) error {

	logrus.WithFields(logrus.Fields{
		"username": username,
	}).Debugln("Logging in")

	credentials := models.Credentials{Username: username, Password: password}

	var token models.Token
	if err := s.client.PostForm(ctx, TokenEndpoint, credentials.AsForm(), &token); err != nil {
		logrus.WithError(err).Errorln("Login error")
		return newAuthError(api.DetailOf(err, MessageLoginFailed), err)
	}

	if len(token.AccessToken) == 0 {
		logrus.WithError(errEmptyToken).Errorln("Login error")
		return newAuthError(MessageLoginFailed, errEmptyToken)
	}

	if !token.IsBearer() {
		logrus.WithFields(logrus.Fields{
			"tokenType": token.TokenType,
		}).Warnln("Unexpected token type, using it as a bearer token")
	}

	s.session.SetToken(token.AccessToken)

	if err := s.tokens.Save(ctx, token.AccessToken); err != nil {
		logrus.WithError(err).Warnln("Failed to persist token, session will not survive a restart")
	}

	if err := s.fetchUser(ctx); err != nil {
		return newAuthError(api.DetailOf(err, MessageLoginFailed), err)
	}

	s.publish(ctx, events.LoggedIn)

	return nil
}

// Register creates an account. It does not log the new account in.
func (s *Store) Register(ctx context.Context, registration models.Registration) (*models.User, error) {

	logrus.WithFields(logrus.Fields{
		"username": registration.Username,
		"email":    registration.Email,
	}).Debugln("Registering account")

	var user models.User
	if err := s.client.Post(ctx, RegisterEndpoint, registration, &user); err != nil {
		logrus.WithError(err).Errorln("Register error")
		return nil, newAuthError(api.DetailOf(err, MessageRegistrationFailed), err)
	}

	return &user, nil
}

// FetchUser loads the profile for the current token. Any failure logs the
// session out.
func (s *Store) FetchUser(ctx context.Context) bool {
	return s.fetchUser(ctx) == nil
}

// ValidateToken is FetchUser that returns false straight away when there
// is no token to validate.
func (s *Store) ValidateToken(ctx context.Context) bool {
	if !s.session.IsAuthenticated() {
		return false
	}

	if err := s.fetchUser(ctx); err != nil {
		logrus.WithError(err).Debugln("Token validation failed")
		return false
	}
	return true
}

func (s *Store) fetchUser(ctx context.Context) error {
	var user models.User
	err := s.client.Get(ctx, CurrentUserEndpoint, &user)
	if err == nil {
		err = s.session.SetUser(&user)
	}

	if err != nil {
		logrus.WithError(err).Errorln("Fetch user error")
		// A 401 has already logged out through the event bus
		if s.session.IsAuthenticated() {
			s.Logout(ctx)
		}
		return err
	}

	logrus.WithFields(logrus.Fields{
		"username": user.Username,
	}).Debugln("Loaded user profile")

	return nil
}

// Logout clears the token, the user and the persisted token. The server
// is not contacted.
func (s *Store) Logout(ctx context.Context) {
	s.session.Clear()

	if err := s.tokens.Clear(ctx); err != nil {
		logrus.WithError(err).Warnln("Failed to clear persisted token")
	}

	s.publish(ctx, events.LoggedOut)
}

func (s *Store) publish(ctx context.Context, eventType events.Type) {
	if err := s.bus.Publish(ctx, events.NewEvent(eventType, "session")); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event": eventType,
		}).Warnln("Session event handler failed")
	}
}
