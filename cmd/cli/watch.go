package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ledgerbook/client/internal/api"
	"github.com/ledgerbook/client/internal/models"
)

type verifyMsg struct {
	result *models.VerifyResponse
}

type verifyErrorMsg struct {
	err error
}

// watchModel polls the verify endpoint and stops once the server no
// longer accepts the session.
type watchModel struct {
	ctx        context.Context
	app        *application
	interval   time.Duration
	spinner    spinner.Model
	result     *models.VerifyResponse
	checks     int
	lastUpdate time.Time
	ended      bool
	err        error
	quitting   bool
}

func newWatchModel(ctx context.Context, app *application, interval time.Duration) watchModel {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))

	return watchModel{
		ctx:      ctx,
		app:      app,
		interval: interval,
		spinner:  s,
	}
}

func (m watchModel) verify() tea.Msg {
	result, err := m.app.ledger.Verify(m.ctx)
	if err != nil {
		return verifyErrorMsg{err: err}
	}
	return verifyMsg{result: result}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.verify)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case verifyMsg:
		m.result = msg.result
		m.checks++
		m.lastUpdate = time.Now()
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return m.verify()
		})

	case verifyErrorMsg:
		m.checks++
		m.lastUpdate = time.Now()
		if errors.Is(msg.err, api.ErrUnauthorized) {
			// The store has already logged out
			m.ended = true
			return m, tea.Quit
		}
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}

	var content strings.Builder

	switch {
	case m.ended:
		content.WriteString(expiredStyle.Render("Session ended by the server"))
		content.WriteString("\n")
		return content.String()
	case m.err != nil:
		content.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())))
		content.WriteString("\n")
		return content.String()
	}

	content.WriteString(fmt.Sprintf("%s Watching session", m.spinner.View()))
	if m.result != nil {
		content.WriteString(fmt.Sprintf(" for %s", activeStyle.Render(m.result.Username)))
	}
	content.WriteString("\n")

	if !m.lastUpdate.IsZero() {
		content.WriteString(mutedStyle.Render(fmt.Sprintf("Checks: %d, last at %s", m.checks, m.lastUpdate.Format(time.TimeOnly))))
		content.WriteString("\n")
	}

	content.WriteString("Press q to quit")
	content.WriteString("\n")

	return content.String()
}
