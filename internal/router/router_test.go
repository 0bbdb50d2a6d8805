package router

import (
	"context"
	"net/http"
	"testing"

	"github.com/ledgerbook/client/internal/api"
	"github.com/ledgerbook/client/internal/events"
	"github.com/ledgerbook/client/internal/models"
	"github.com/ledgerbook/client/internal/session"
	"github.com/ledgerbook/client/internal/testing/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	authenticated bool
	hasUser       bool
	valid         bool
	validations   int
}

func (s *stubAuth) IsAuthenticated() bool { return s.authenticated }
func (s *stubAuth) HasUser() bool         { return s.hasUser }
func (s *stubAuth) ValidateToken(ctx context.Context) bool {
	s.validations++
	return s.valid
}

type stack struct {
	server    *fakeapi.Server
	client    *api.Client
	store     *session.Store
	navigator *Navigator
}

func newStack(t *testing.T) *stack {
	t.Helper()

	server := fakeapi.New(t)
	server.AddUser("alice", "secret", "alice@example.com")

	bus := events.NewBus()
	sess := session.New()
	client := api.NewClient(api.Config{BaseURL: server.URL}, sess, bus)
	store := session.NewStore(sess, client, session.NewMemoryTokenStore(), bus)

	return &stack{
		server:    server,
		client:    client,
		store:     store,
		navigator: NewNavigator(NewGuard(store), bus),
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		path  string
		want  string
		found bool
	}{
		{"/", RootPath, true},
		{"/login", LoginPath, true},
		{"/transactions/", TransactionsPath, true},
		{"/accounts?skip=10", AccountsPath, true},
		{"projects", ProjectsPath, true},
		{"/auth-test", AuthTestPath, true},
		{"/admin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			route, ok := Lookup(tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, route.Path)
		})
	}
}

func TestRoutes_ProtectedSet(t *testing.T) {
	var protected []string
	for _, route := range Routes() {
		if route.Protected {
			protected = append(protected, route.Path)
		}
	}

	assert.ElementsMatch(t, []string{
		DashboardPath, TransactionsPath, AccountsPath, ProjectsPath, AuthTestPath,
	}, protected)
}

func TestGuard_Check(t *testing.T) {
	dashboard, _ := Lookup(DashboardPath)
	login, _ := Lookup(LoginPath)
	register, _ := Lookup(RegisterPath)

	t.Run("protected without token", func(t *testing.T) {
		auth := &stubAuth{}
		decision := NewGuard(auth).Check(context.Background(), dashboard)
		assert.Equal(t, Decision{Redirect: LoginPath}, decision)
		assert.Equal(t, 0, auth.validations)
	})

	t.Run("protected with user", func(t *testing.T) {
		auth := &stubAuth{authenticated: true, hasUser: true}
		decision := NewGuard(auth).Check(context.Background(), dashboard)
		assert.True(t, decision.Allow)
		assert.Equal(t, 0, auth.validations)
	})

	t.Run("protected with token that validates", func(t *testing.T) {
		auth := &stubAuth{authenticated: true, valid: true}
		decision := NewGuard(auth).Check(context.Background(), dashboard)
		assert.True(t, decision.Allow)
		assert.Equal(t, 1, auth.validations)
	})

	t.Run("protected with token that fails validation", func(t *testing.T) {
		auth := &stubAuth{authenticated: true}
		decision := NewGuard(auth).Check(context.Background(), dashboard)
		assert.Equal(t, Decision{Redirect: LoginPath}, decision)
	})

	t.Run("guest pages while authenticated", func(t *testing.T) {
		auth := &stubAuth{authenticated: true, hasUser: true}
		guard := NewGuard(auth)
		assert.Equal(t, Decision{Redirect: DashboardPath}, guard.Check(context.Background(), login))
		assert.Equal(t, Decision{Redirect: DashboardPath}, guard.Check(context.Background(), register))
	})

	t.Run("guest pages without session", func(t *testing.T) {
		guard := NewGuard(&stubAuth{})
		assert.True(t, guard.Check(context.Background(), login).Allow)
		assert.True(t, guard.Check(context.Background(), register).Allow)
	})
}

func TestNavigator_ProtectedWithoutTokenMakesNoRequests(t *testing.T) {
	s := newStack(t)

	route, err := s.navigator.Push(context.Background(), TransactionsPath)
	require.NoError(t, err)
	assert.Equal(t, LoginPath, route.Path)
	assert.Equal(t, 0, s.server.TotalHits())
}

func TestNavigator_RootRedirects(t *testing.T) {
	s := newStack(t)
	require.NoError(t, s.store.Login(context.Background(), "alice", "secret"))

	route, err := s.navigator.Push(context.Background(), RootPath)
	require.NoError(t, err)
	assert.Equal(t, DashboardPath, route.Path)
}

func TestNavigator_LoginWhileAuthenticated(t *testing.T) {
	s := newStack(t)
	require.NoError(t, s.store.Login(context.Background(), "alice", "secret"))
	s.server.ResetHits()

	route, err := s.navigator.Push(context.Background(), LoginPath)
	require.NoError(t, err)
	assert.Equal(t, DashboardPath, route.Path)
	assert.Equal(t, 0, s.server.TotalHits(), "user already loaded")
}

func TestNavigator_ValidatesTokenWithoutUser(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		s := newStack(t)
		s.store.Session().SetToken(s.server.IssueToken("alice"))

		route, err := s.navigator.Push(context.Background(), AccountsPath)
		require.NoError(t, err)
		assert.Equal(t, AccountsPath, route.Path)
		require.True(t, s.store.HasUser())
		assert.Equal(t, "alice", s.store.User().Username)
		assert.Equal(t, 1, s.server.Hits(http.MethodGet, "/users/me/"))
	})

	t.Run("expired token", func(t *testing.T) {
		s := newStack(t)
		s.store.Session().SetToken(s.server.IssueExpiredToken("alice"))

		route, err := s.navigator.Push(context.Background(), AccountsPath)
		require.NoError(t, err)
		assert.Equal(t, LoginPath, route.Path)
		assert.False(t, s.store.IsAuthenticated())
	})
}

func TestNavigator_UnknownRoute(t *testing.T) {
	s := newStack(t)

	_, err := s.navigator.Push(context.Background(), "/admin")
	assert.ErrorIs(t, err, ErrRouteNotFound)

	_, ok := s.navigator.Current()
	assert.False(t, ok)
}

func TestNavigator_RedirectLoop(t *testing.T) {
	// A token that never validates but is never cleared bounces between
	// login and dashboard.
	auth := &stubAuth{authenticated: true}
	navigator := NewNavigator(NewGuard(auth), nil)

	_, err := navigator.Push(context.Background(), DashboardPath)
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestNavigator_UnauthorizedReturnsToLogin(t *testing.T) {
	s := newStack(t)
	require.NoError(t, s.store.Login(context.Background(), "alice", "secret"))

	route, err := s.navigator.Push(context.Background(), TransactionsPath)
	require.NoError(t, err)
	require.Equal(t, TransactionsPath, route.Path)

	s.server.Revoke(s.store.Token())

	var transactions []models.Transaction
	err = s.client.Get(context.Background(), "/transactions/", &transactions)
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	current, ok := s.navigator.Current()
	require.True(t, ok)
	assert.Equal(t, LoginPath, current.Path)
	assert.False(t, s.store.IsAuthenticated())
	assert.False(t, s.store.HasUser())
}

func TestNavigator_UnauthorizedOnLoginPageStays(t *testing.T) {
	s := newStack(t)
	s.server.LoginFailureDetail = "incorrect password"

	_, err := s.navigator.Push(context.Background(), LoginPath)
	require.NoError(t, err)

	err = s.store.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, "incorrect password", err.Error())

	assert.Equal(t, []string{LoginPath}, s.navigator.History())
}
