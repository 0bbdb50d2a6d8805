package config

import (
	"slices"
	"sync"

	"github.com/ledgerbook/client/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultEventBufferSize = 200

	// Field the api client tags every request log line with
	requestIDField = "requestId"
)

// eventLogger is a logrus hook that remembers the latest entries for the
// diagnostics view.
type eventLogger struct {
	mu      sync.Mutex
	limit   int
	entries []*models.LogEntry
}

func newEventLogger(limit int) *eventLogger {
	if limit <= 0 {
		limit = defaultEventBufferSize
	}
	return &eventLogger{limit: limit}
}

func (l *eventLogger) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (l *eventLogger) Fire(entry *logrus.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, models.NewLogEntry(entry))
	if overflow := len(l.entries) - l.limit; overflow > 0 {
		l.entries = slices.Delete(l.entries, 0, overflow)
	}
	return nil
}

// latest returns up to count matching entries, oldest first. A count of
// zero or less means no limit.
func (l *eventLogger) latest(count int, match func(*models.LogEntry) bool) []*models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var found []*models.LogEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if count > 0 && len(found) == count {
			break
		}
		if match == nil || match(l.entries[i]) {
			found = append(found, l.entries[i])
		}
	}
	slices.Reverse(found)
	return found
}

// RecentEvents returns up to count of the latest log entries recorded
// since the configuration was loaded.
func (c *Config) RecentEvents(count int) []*models.LogEntry {
	if c.logger == nil {
		return nil
	}
	return c.logger.latest(count, nil)
}

// RequestEvents returns the log entries written for one api request.
func (c *Config) RequestEvents(requestID string) []*models.LogEntry {
	if c.logger == nil || len(requestID) == 0 {
		return nil
	}
	return c.logger.latest(0, func(entry *models.LogEntry) bool {
		id, _ := entry.Data[requestIDField].(string)
		return id == requestID
	})
}
