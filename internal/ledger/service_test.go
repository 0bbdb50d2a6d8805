package ledger

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ledgerbook/client/internal/api"
	"github.com/ledgerbook/client/internal/events"
	"github.com/ledgerbook/client/internal/models"
	"github.com/ledgerbook/client/internal/session"
	"github.com/ledgerbook/client/internal/testing/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *fakeapi.Server, *session.Store) {
	t.Helper()

	server := fakeapi.New(t)
	server.AddUser("alice", "secret", "alice@example.com")

	bus := events.NewBus()
	sess := session.New()
	client := api.NewClient(api.Config{BaseURL: server.URL}, sess, bus)
	store := session.NewStore(sess, client, session.NewMemoryTokenStore(), bus)
	require.NoError(t, store.Login(context.Background(), "alice", "secret"))

	return NewService(client), server, store
}

func ptr[T any](v T) *T {
	return &v
}

func TestService_Verify(t *testing.T) {
	service, _, _ := newTestService(t)

	result, err := service.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "alice", result.Username)
}

func TestService_VerifyFallsBackToCurrentUser(t *testing.T) {
	service, server, _ := newTestService(t)
	server.VerifyUnavailable = true
	server.ResetHits()

	result, err := service.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "alice", result.Username)
	assert.NotZero(t, result.UserID)

	assert.Equal(t, 1, server.Hits(http.MethodGet, VerifyEndpoint))
	assert.Equal(t, 1, server.Hits(http.MethodGet, "/users/me/"))
}

func TestService_VerifyRejectedTokenDoesNotFallBack(t *testing.T) {
	service, server, store := newTestService(t)
	server.Revoke(store.Token())
	server.ResetHits()

	_, err := service.Verify(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, 0, server.Hits(http.MethodGet, "/users/me"))
}

func TestService_Accounts(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateAccount(ctx, models.Account{Name: "Wallet", Type: "cash", InitialBalance: 50, IsActive: true})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = service.CreateAccount(ctx, models.Account{Name: "Bank", Type: "bank"})
	require.NoError(t, err)

	accounts, err := service.ListAccounts(ctx, models.DefaultPage())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	paged, err := service.ListAccounts(ctx, models.Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Bank", paged[0].Name)

	fetched, err := service.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wallet", fetched.Name)

	updated, err := service.UpdateAccount(ctx, created.ID, models.AccountUpdate{Name: ptr("Purse"), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Purse", updated.Name)
	assert.Equal(t, "cash", updated.Type)
	assert.False(t, updated.IsActive)

	_, err = service.UpdateAccount(ctx, created.ID, models.AccountUpdate{Name: ptr("")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, service.DeleteAccount(ctx, created.ID))

	_, err = service.GetAccount(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
	assert.Equal(t, "Account not found", api.DetailOf(err, ""))
}

func TestService_CreateAccountRequiresName(t *testing.T) {
	service, server, _ := newTestService(t)
	server.ResetHits()

	_, err := service.CreateAccount(context.Background(), models.Account{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, server.TotalHits())
}

func TestService_Projects(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateProject(ctx, models.Project{
		Name:      "Renovation",
		StartDate: ptr("2024-01-01"),
		EndDate:   ptr("2024-06-30"),
	})
	require.NoError(t, err)

	updated, err := service.UpdateProject(ctx, created.ID, models.ProjectUpdate{Description: ptr("kitchen")})
	require.NoError(t, err)
	assert.Equal(t, "Renovation", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "kitchen", *updated.Description)

	fetched, err := service.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renovation", fetched.Name)

	projects, err := service.ListProjects(ctx, models.DefaultPage())
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	require.NoError(t, service.DeleteProject(ctx, created.ID))

	projects, err = service.ListProjects(ctx, models.DefaultPage())
	require.NoError(t, err)
	assert.Empty(t, projects)

	_, err = service.GetProject(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestService_ProjectDateValidation(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.CreateProject(context.Background(), models.Project{Name: "x", StartDate: ptr("01/02/2024")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.CreateProject(context.Background(), models.Project{
		Name:      "x",
		StartDate: ptr("2024-06-01"),
		EndDate:   ptr("2024-01-01"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Transactions(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	account, err := service.CreateAccount(ctx, models.Account{Name: "Wallet", Type: "cash"})
	require.NoError(t, err)

	created, err := service.CreateTransaction(ctx, models.Transaction{
		AccountID:       account.ID,
		Type:            models.TransactionTypeExpense,
		Title:           ptr("Coffee"),
		Amount:          3.5,
		Currency:        "CNY",
		TransactionDate: models.NewTimestamp(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.True(t, created.IsExpense())

	updated, err := service.UpdateTransaction(ctx, created.ID, models.TransactionUpdate{Amount: ptr(4.0)})
	require.NoError(t, err)
	assert.Equal(t, 4.0, updated.Amount)

	fetched, err := service.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Equal(fetched.TransactionDate.Time))
	assert.False(t, fetched.CreatedAt.IsZero())

	transactions, err := service.ListTransactions(ctx, models.DefaultPage())
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "Coffee", *transactions[0].Title)

	require.NoError(t, service.DeleteTransaction(ctx, created.ID))

	err = service.DeleteTransaction(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestService_ItemsUseCanonicalPaths(t *testing.T) {
	service, server, _ := newTestService(t)
	ctx := context.Background()

	project, err := service.CreateProject(ctx, models.Project{Name: "Trip"})
	require.NoError(t, err)
	server.ResetHits()

	_, err = service.UpdateProject(ctx, project.ID, models.ProjectUpdate{Name: ptr("Holiday")})
	require.NoError(t, err)
	require.NoError(t, service.DeleteProject(ctx, project.ID))

	path := itemPath(ProjectsEndpoint, project.ID)
	assert.Equal(t, 1, server.Hits(http.MethodPut, path))
	assert.Equal(t, 1, server.Hits(http.MethodDelete, path))
	assert.Equal(t, 2, server.TotalHits(), "no redirects")
}

func TestService_SlashFormReplayedOnce(t *testing.T) {
	service, server, _ := newTestService(t)
	ctx := context.Background()

	account, err := service.CreateAccount(ctx, models.Account{Name: "Wallet", Type: "cash"})
	require.NoError(t, err)
	transaction, err := service.CreateTransaction(ctx, models.Transaction{
		AccountID:       account.ID,
		Type:            models.TransactionTypeIncome,
		Amount:          10,
		Currency:        "CNY",
		TransactionDate: models.NewTimestamp(time.Now()),
	})
	require.NoError(t, err)
	server.ResetHits()

	canonical := itemPath(TransactionsEndpoint, transaction.ID)
	slashed := canonical + "/"

	var updated models.Transaction
	require.NoError(t, service.client.Put(ctx, slashed, models.TransactionUpdate{Amount: ptr(12.5)}, &updated))
	assert.Equal(t, 12.5, updated.Amount, "body survives the replay")

	require.NoError(t, service.client.Delete(ctx, slashed, nil))

	assert.Equal(t, 1, server.Hits(http.MethodPut, slashed))
	assert.Equal(t, 1, server.Hits(http.MethodPut, canonical))
	assert.Equal(t, 1, server.Hits(http.MethodDelete, slashed))
	assert.Equal(t, 1, server.Hits(http.MethodDelete, canonical))

	_, err = service.GetTransaction(ctx, transaction.ID)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestService_TransactionValidation(t *testing.T) {
	service, server, _ := newTestService(t)
	server.ResetHits()
	ctx := context.Background()

	_, err := service.CreateTransaction(ctx, models.Transaction{AccountID: 1, Type: "transfer", Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.CreateTransaction(ctx, models.Transaction{AccountID: 1, Type: models.TransactionTypeIncome})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.CreateTransaction(ctx, models.Transaction{Type: models.TransactionTypeIncome, Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.UpdateTransaction(ctx, 1, models.TransactionUpdate{Amount: ptr(-1.0)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 0, server.TotalHits())
}

func TestService_UnauthorizedLogsOut(t *testing.T) {
	service, server, store := newTestService(t)
	server.Revoke(store.Token())

	_, err := service.ListAccounts(context.Background(), models.DefaultPage())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, store.IsAuthenticated())
}
