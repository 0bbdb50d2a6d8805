// Package ledger reads and writes the bookkeeping resources behind the
// protected views. Every call goes through the authenticated API client.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ledgerbook/client/internal/api"
	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	AccountsEndpoint     = "/accounts/"
	ProjectsEndpoint     = "/projects/"
	TransactionsEndpoint = "/transactions/"
	VerifyEndpoint       = "/auth/verify/"

	currentUserEndpoint = "/users/me"
)

var ErrInvalidInput = errors.New("invalid input")

// Client is the subset of api.Client the service uses.
type Client interface {
	Get(ctx context.Context, path string, result any) error
	GetWithQuery(ctx context.Context, path string, query map[string]string, result any) error
	Post(ctx context.Context, path string, body any, result any) error
	Put(ctx context.Context, path string, body any, result any) error
	Delete(ctx context.Context, path string, result any) error
}

type Service struct {
	client Client
}

func NewService(client Client) *Service {
	return &Service{client: client}
}

// itemPath is where a single resource lives, /<collection>/<id> with no
// trailing slash.
func itemPath(collection string, id int) string {
	return collection + strconv.Itoa(id)
}

func pageQuery(page models.Page) map[string]string {
	if page.Limit <= 0 {
		page.Limit = models.DefaultPage().Limit
	}
	if page.Skip < 0 {
		page.Skip = 0
	}
	return map[string]string{
		"skip":  strconv.Itoa(page.Skip),
		"limit": strconv.Itoa(page.Limit),
	}
}

// Verify asks the backend whether the current token is still accepted.
// Backends without the verify endpoint are asked for the current user
// instead.
func (s *Service) Verify(ctx context.Context) (*models.VerifyResponse, error) {
	var result models.VerifyResponse
	err := s.client.Get(ctx, VerifyEndpoint, &result)
	if err == nil {
		return &result, nil
	}

	if api.StatusOf(err) != http.StatusNotFound {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	logrus.Debugln("Verify endpoint not found, checking the current user instead")

	var user models.User
	if err := s.client.Get(ctx, currentUserEndpoint, &user); err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	return &models.VerifyResponse{Valid: true, Username: user.Username, UserID: user.ID}, nil
}

func (s *Service) ListAccounts(ctx context.Context, page models.Page) ([]models.Account, error) {
	accounts := []models.Account{}
	if err := s.client.GetWithQuery(ctx, AccountsEndpoint, pageQuery(page), &accounts); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) GetAccount(ctx context.Context, id int) (*models.Account, error) {
	var account models.Account
	if err := s.client.Get(ctx, itemPath(AccountsEndpoint, id), &account); err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return &account, nil
}

func (s *Service) CreateAccount(ctx context.Context, account models.Account) (*models.Account, error) {
	if len(account.Name) == 0 {
		return nil, fmt.Errorf("%w: account name is required", ErrInvalidInput)
	}

	var created models.Account
	if err := s.client.Post(ctx, AccountsEndpoint, account, &created); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"account": created.ID,
	}).Debugln("Created account")

	return &created, nil
}

func (s *Service) UpdateAccount(ctx context.Context, id int, update models.AccountUpdate) (*models.Account, error) {
	if update.Name != nil && len(*update.Name) == 0 {
		return nil, fmt.Errorf("%w: account name must not be empty", ErrInvalidInput)
	}

	var updated models.Account
	if err := s.client.Put(ctx, itemPath(AccountsEndpoint, id), update, &updated); err != nil {
		return nil, fmt.Errorf("failed to update account %d: %w", id, err)
	}
	return &updated, nil
}

func (s *Service) DeleteAccount(ctx context.Context, id int) error {
	if err := s.client.Delete(ctx, itemPath(AccountsEndpoint, id), nil); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	return nil
}

func (s *Service) ListProjects(ctx context.Context, page models.Page) ([]models.Project, error) {
	projects := []models.Project{}
	if err := s.client.GetWithQuery(ctx, ProjectsEndpoint, pageQuery(page), &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *Service) GetProject(ctx context.Context, id int) (*models.Project, error) {
	var project models.Project
	if err := s.client.Get(ctx, itemPath(ProjectsEndpoint, id), &project); err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return &project, nil
}

func (s *Service) CreateProject(ctx context.Context, project models.Project) (*models.Project, error) {
	if len(project.Name) == 0 {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	if err := validateDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	var created models.Project
	if err := s.client.Post(ctx, ProjectsEndpoint, project, &created); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &created, nil
}

func (s *Service) UpdateProject(ctx context.Context, id int, update models.ProjectUpdate) (*models.Project, error) {
	if err := validateDates(update.StartDate, update.EndDate); err != nil {
		return nil, err
	}

	var updated models.Project
	if err := s.client.Put(ctx, itemPath(ProjectsEndpoint, id), update, &updated); err != nil {
		return nil, fmt.Errorf("failed to update project %d: %w", id, err)
	}
	return &updated, nil
}

func (s *Service) DeleteProject(ctx context.Context, id int) error {
	if err := s.client.Delete(ctx, itemPath(ProjectsEndpoint, id), nil); err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	return nil
}

func (s *Service) ListTransactions(ctx context.Context, page models.Page) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	if err := s.client.GetWithQuery(ctx, TransactionsEndpoint, pageQuery(page), &transactions); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (s *Service) GetTransaction(ctx context.Context, id int) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.client.Get(ctx, itemPath(TransactionsEndpoint, id), &transaction); err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return &transaction, nil
}

func (s *Service) CreateTransaction(ctx context.Context, transaction models.Transaction) (*models.Transaction, error) {
	if err := validateTransactionType(transaction.Type); err != nil {
		return nil, err
	}
	if transaction.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if transaction.AccountID == 0 {
		return nil, fmt.Errorf("%w: account is required", ErrInvalidInput)
	}

	var created models.Transaction
	if err := s.client.Post(ctx, TransactionsEndpoint, transaction, &created); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"transaction": created.ID,
		"account":     created.AccountID,
	}).Debugln("Created transaction")

	return &created, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, id int, update models.TransactionUpdate) (*models.Transaction, error) {
	if update.Type != nil {
		if err := validateTransactionType(*update.Type); err != nil {
			return nil, err
		}
	}
	if update.Amount != nil && *update.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	var updated models.Transaction
	if err := s.client.Put(ctx, itemPath(TransactionsEndpoint, id), update, &updated); err != nil {
		return nil, fmt.Errorf("failed to update transaction %d: %w", id, err)
	}
	return &updated, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id int) error {
	if err := s.client.Delete(ctx, itemPath(TransactionsEndpoint, id), nil); err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	return nil
}

func validateTransactionType(transactionType string) error {
	switch transactionType {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
		return nil
	}
	return fmt.Errorf("%w: transaction type must be %s or %s, got %q",
		ErrInvalidInput, models.TransactionTypeIncome, models.TransactionTypeExpense, transactionType)
}

func validateDates(start, end *string) error {
	if start != nil && !common.IsValidDate(*start) {
		return fmt.Errorf("%w: start date %q is not %s", ErrInvalidInput, *start, common.DateLayout)
	}
	if end != nil && !common.IsValidDate(*end) {
		return fmt.Errorf("%w: end date %q is not %s", ErrInvalidInput, *end, common.DateLayout)
	}
	if start != nil && end != nil && *end < *start {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}
	return nil
}
