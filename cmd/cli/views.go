package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/ledgerbook/client/internal/api"
	"github.com/ledgerbook/client/internal/ledger"
	"github.com/ledgerbook/client/internal/models"
	"github.com/ledgerbook/client/internal/router"
	"github.com/ledgerbook/client/internal/session"
	"golang.org/x/text/currency"
)

const (
	dashboardRecent = 5
	diagnosticLogs  = 10
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

func optional(value *string) string {
	if value == nil || len(*value) == 0 {
		return "-"
	}
	return *value
}

// formatMoney renders an amount with its ISO code using the currency's
// standard number of decimals.
func formatMoney(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	return fmt.Sprint(currency.ISO(unit.Amount(amount)))
}

func formatAmount(transaction models.Transaction) string {
	amount := formatMoney(transaction.Amount, transaction.Currency)
	if transaction.IsExpense() {
		return expenseStyle.Render("-" + amount)
	}
	return incomeStyle.Render("+" + amount)
}

func renderAccounts(accounts []models.Account) string {
	if len(accounts) == 0 {
		return infoStyle.Render("No accounts yet")
	}

	t := newTable("ID", "Name", "Type", "Initial balance", "Active")
	for _, account := range accounts {
		t.Row(
			strconv.Itoa(account.ID),
			account.Name,
			account.Type,
			fmt.Sprintf("%.2f", account.InitialBalance),
			strconv.FormatBool(account.IsActive),
		)
	}
	return t.String()
}

func renderProjects(projects []models.Project) string {
	if len(projects) == 0 {
		return infoStyle.Render("No projects yet")
	}

	t := newTable("ID", "Name", "Description", "Start", "End")
	for _, project := range projects {
		t.Row(
			strconv.Itoa(project.ID),
			project.Name,
			optional(project.Description),
			optional(project.StartDate),
			optional(project.EndDate),
		)
	}
	return t.String()
}

func renderTransactions(transactions []models.Transaction) string {
	if len(transactions) == 0 {
		return infoStyle.Render("No transactions yet")
	}

	t := newTable("ID", "Date", "Title", "Amount", "Account", "Project")
	for _, transaction := range transactions {
		project := "-"
		if transaction.ProjectID != nil {
			project = strconv.Itoa(*transaction.ProjectID)
		}
		t.Row(
			strconv.Itoa(transaction.ID),
			transaction.TransactionDate.Format(time.DateOnly),
			optional(transaction.Title),
			formatAmount(transaction),
			strconv.Itoa(transaction.AccountID),
			project,
		)
	}
	return t.String()
}

// summarize totals income and expense per currency.
func summarize(transactions []models.Transaction) map[string][2]float64 {
	totals := make(map[string][2]float64)
	for _, transaction := range transactions {
		total := totals[transaction.Currency]
		if transaction.IsExpense() {
			total[1] += transaction.Amount
		} else {
			total[0] += transaction.Amount
		}
		totals[transaction.Currency] = total
	}
	return totals
}

func renderDashboard(user *models.User, accounts []models.Account, projects []models.Project, transactions []models.Transaction) string {
	var content strings.Builder

	if user != nil {
		content.WriteString(fmt.Sprintf("Welcome back, %s\n\n", headerStyle.Render(user.GetName())))
	}

	content.WriteString(fmt.Sprintf("Accounts:      %d\n", len(accounts)))
	content.WriteString(fmt.Sprintf("Projects:      %d\n", len(projects)))
	content.WriteString(fmt.Sprintf("Transactions:  %d\n", len(transactions)))

	totals := summarize(transactions)
	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		total := totals[code]
		content.WriteString(fmt.Sprintf("Totals:        %s / %s\n",
			incomeStyle.Render("+"+formatMoney(total[0], code)),
			expenseStyle.Render("-"+formatMoney(total[1], code)),
		))
	}

	if len(transactions) > 0 {
		recent := transactions
		if len(recent) > dashboardRecent {
			recent = recent[len(recent)-dashboardRecent:]
		}
		content.WriteString("\n")
		content.WriteString(headerStyle.Render("Recent transactions"))
		content.WriteString("\n")
		content.WriteString(renderTransactions(recent))
	}

	return content.String()
}

func renderSessionStatus(store *session.Store, now time.Time) string {
	var content strings.Builder

	if !store.IsAuthenticated() {
		content.WriteString(warningStyle.Render("Not signed in"))
		content.WriteString("\n")
		return content.String()
	}

	if user := store.User(); user != nil {
		content.WriteString(fmt.Sprintf("User:     %s (%s)\n", activeStyle.Render(user.GetName()), user.Email))
	} else {
		content.WriteString(fmt.Sprintf("User:     %s\n", mutedStyle.Render("not loaded")))
	}

	claims, err := store.Claims()
	if err != nil {
		content.WriteString(fmt.Sprintf("Token:    %s\n", mutedStyle.Render("opaque")))
		return content.String()
	}

	if claims.ExpiresAt == nil {
		content.WriteString(fmt.Sprintf("Token:    %s\n", activeStyle.Render("no expiry")))
	} else if claims.IsExpired(now) {
		content.WriteString(fmt.Sprintf("Token:    %s\n", expiredStyle.Render(
			fmt.Sprintf("expired %s", claims.ExpiresAt.Local().Format(time.DateTime)))))
	} else {
		content.WriteString(fmt.Sprintf("Token:    %s\n", activeStyle.Render(
			fmt.Sprintf("expires %s (%s)", claims.ExpiresAt.Local().Format(time.DateTime), formatDuration(claims.TimeLeft(now))))))
	}

	return content.String()
}

func renderLogEntries(entries []*models.LogEntry) string {
	if len(entries) == 0 {
		return mutedStyle.Render("No log entries recorded")
	}

	t := newTable("Time", "Level", "Message")
	for _, entry := range entries {
		t.Row(entry.Time.Local().Format(time.TimeOnly), entry.Level.String(), entry.Message)
	}
	return t.String()
}

// renderRoute loads the data behind a view and renders it.
func renderRoute(ctx context.Context, service *ledger.Service, store *session.Store, route router.Route) (string, error) {
	var content strings.Builder

	content.WriteString(viewTitleStyle.Render(route.Title))
	content.WriteString("\n\n")

	switch route.Path {

	case router.DashboardPath:
		accounts, err := service.ListAccounts(ctx, models.DefaultPage())
		if err != nil {
			return "", err
		}
		projects, err := service.ListProjects(ctx, models.DefaultPage())
		if err != nil {
			return "", err
		}
		transactions, err := service.ListTransactions(ctx, models.DefaultPage())
		if err != nil {
			return "", err
		}
		content.WriteString(renderDashboard(store.User(), accounts, projects, transactions))

	case router.AccountsPath:
		accounts, err := service.ListAccounts(ctx, models.DefaultPage())
		if err != nil {
			return "", err
		}
		content.WriteString(renderAccounts(accounts))

	case router.ProjectsPath:
		projects, err := service.ListProjects(ctx, models.DefaultPage())
		if err != nil {
			return "", err
		}
		content.WriteString(renderProjects(projects))

	case router.TransactionsPath:
		transactions, err := service.ListTransactions(ctx, models.DefaultPage())
		if err != nil {
			return "", err
		}
		content.WriteString(renderTransactions(transactions))

	case router.AuthTestPath:
		content.WriteString(renderSessionStatus(store, time.Now()))
		content.WriteString("\n")

		verify, err := service.Verify(ctx)
		if err != nil {
			content.WriteString(fmt.Sprintf("Verify:   %s\n", errorStyle.Render(err.Error())))
		} else {
			content.WriteString(fmt.Sprintf("Verify:   %s (user %s, id %d)\n",
				successStyle.Render(strconv.FormatBool(verify.Valid)), verify.Username, verify.UserID))
		}

		content.WriteString("\n")
		if requestID := api.RequestIDOf(err); len(requestID) > 0 {
			content.WriteString(headerStyle.Render("Log entries for request " + requestID))
			content.WriteString("\n")
			content.WriteString(renderLogEntries(cfg.RequestEvents(requestID)))
		} else {
			content.WriteString(headerStyle.Render("Recent log entries"))
			content.WriteString("\n")
			content.WriteString(renderLogEntries(cfg.RecentEvents(diagnosticLogs)))
		}

	default:
		content.WriteString(infoStyle.Render(fmt.Sprintf("Nothing to show for %s", route.Path)))
	}

	content.WriteString("\n")
	return content.String(), nil
}

// formatDuration renders the time left on a token, coarsest units first.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}

	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%s, %s", plural(days, "day"), plural(hours, "hour"))
	case hours > 0:
		return fmt.Sprintf("%s, %s", plural(hours, "hour"), plural(minutes, "minute"))
	case minutes > 0:
		return plural(minutes, "minute")
	}
	return "less than a minute"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
