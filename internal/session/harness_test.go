package session

import (
	"context"
	"testing"

	"github.com/ledgerbook/client/internal/api"
	"github.com/ledgerbook/client/internal/events"
	"github.com/ledgerbook/client/internal/testing/fakeapi"
)

type harness struct {
	server *fakeapi.Server
	bus    *events.Bus
	client *api.Client
	tokens *MemoryTokenStore
	store  *Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	server := fakeapi.New(t)
	bus := events.NewBus()
	sess := New()
	client := api.NewClient(api.Config{BaseURL: server.URL}, sess, bus)
	tokens := NewMemoryTokenStore()

	return &harness{
		server: server,
		bus:    bus,
		client: client,
		tokens: tokens,
		store:  NewStore(sess, client, tokens, bus),
	}
}

func (h *harness) persisted(t *testing.T) string {
	t.Helper()
	token, _ := h.tokens.Load(context.Background())
	return token
}
