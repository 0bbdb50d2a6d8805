package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ledgerbook/client/internal/events"
	"github.com/sirupsen/logrus"
)

const MaxHops = 5

var (
	ErrRouteNotFound    = errors.New("route not found")
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Navigator tracks the current view. It never holds its lock while the
// guard runs, since validation may publish events back into it.
type Navigator struct {
	guard *Guard

	mu      sync.Mutex
	current *Route
	history []string
}

func NewNavigator(guard *Guard, bus *events.Bus) *Navigator {
	n := &Navigator{guard: guard}
	if bus != nil {
		bus.Subscribe(events.Unauthorized, n.onUnauthorized)
	}
	return n
}

func (n *Navigator) onUnauthorized(ctx context.Context, event events.Event) error {
	if current, ok := n.Current(); ok && current.Path == LoginPath {
		return nil
	}

	login, _ := Lookup(LoginPath)

	logrus.WithFields(logrus.Fields{
		"path": event.Path,
	}).Infoln("Credential rejected, returning to login")

	n.setCurrent(login)
	return nil
}

// Push navigates to path, following static and guard redirects, and
// returns the route that was finally entered.
func (n *Navigator) Push(ctx context.Context, path string) (Route, error) {
	target := path

	for hop := 0; hop <= MaxHops; hop++ {
		route, ok := Lookup(target)
		if !ok {
			return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, target)
		}

		if len(route.Redirect) > 0 {
			target = route.Redirect
			continue
		}

		decision := n.guard.Check(ctx, route)
		if !decision.Allow {
			logrus.WithFields(logrus.Fields{
				"from": route.Path,
				"to":   decision.Redirect,
			}).Debugln("Navigation redirected")
			target = decision.Redirect
			continue
		}

		n.setCurrent(route)
		return route, nil
	}

	return Route{}, fmt.Errorf("%w: navigating to %s", ErrTooManyRedirects, path)
}

func (n *Navigator) setCurrent(route Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = &route
	n.history = append(n.history, route.Path)
}

func (n *Navigator) Current() (Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Route{}, false
	}
	return *n.current, true
}

func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}
