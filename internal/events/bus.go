// Package events is a small synchronous in-process event bus. The HTTP
// client publishes on it and the session store and navigator observe it,
// so neither has to know about the other.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Type string

const (
	// Unauthorized is published when the backend rejects the credential.
	Unauthorized Type = "auth.unauthorized"
	// LoggedIn is published after a login completes and the user is known.
	LoggedIn Type = "auth.logged_in"
	// LoggedOut is published after the session has been cleared.
	LoggedOut Type = "auth.logged_out"
)

type Event struct {
	Type      Type
	Source    string
	Path      string
	Status    int
	Timestamp time.Time
}

func NewEvent(eventType Type, source string) Event {
	return Event{
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

type Handler func(ctx context.Context, event Event) error

type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
	}
}

func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	logrus.WithFields(logrus.Fields{
		"event": eventType,
	}).Debugln("Subscribed event handler")
}

// Publish runs every handler for the event type in subscription order and
// returns once all of them have finished. Handler errors are joined.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if b == nil {
		return nil
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"event":    event.Type,
		"source":   event.Source,
		"handlers": len(handlers),
	}).Debugln("Publishing event")

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event": event.Type,
			}).Warnln("Event handler failed")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (b *Bus) SubscriberCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
