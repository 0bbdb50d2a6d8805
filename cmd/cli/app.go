package cli

import (
	"context"
	"fmt"

	"github.com/ledgerbook/client/internal/api"
	"github.com/ledgerbook/client/internal/config"
	"github.com/ledgerbook/client/internal/events"
	"github.com/ledgerbook/client/internal/ledger"
	"github.com/ledgerbook/client/internal/router"
	"github.com/ledgerbook/client/internal/session"
)

// application is everything one command invocation needs, wired around
// a single session.
type application struct {
	bus       *events.Bus
	client    *api.Client
	store     *session.Store
	navigator *router.Navigator
	ledger    *ledger.Service
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	tokens, err := session.OpenTokenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return newApplicationWithTokens(cfg, tokens), nil
}

func newApplicationWithTokens(cfg *config.Config, tokens session.TokenStore) *application {
	bus := events.NewBus()
	sess := session.New()

	client := api.NewClient(api.Config{
		BaseURL: cfg.GetBaseURL(),
		Timeout: cfg.GetTimeout(),
	}, sess, bus)

	// The store subscribes before the navigator so the session is already
	// cleared when navigation reacts to a rejected credential.
	store := session.NewStore(sess, client, tokens, bus)
	navigator := router.NewNavigator(router.NewGuard(store), bus)

	return &application{
		bus:       bus,
		client:    client,
		store:     store,
		navigator: navigator,
		ledger:    ledger.NewService(client),
	}
}
