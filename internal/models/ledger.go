package models

const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

type Account struct {
	ID             int     `json:"id,omitempty"`
	UserID         int     `json:"user_id,omitempty"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	InitialBalance float64 `json:"initial_balance"`
	IsActive       bool    `json:"is_active"`
}

// AccountUpdate only carries the fields being changed.
type AccountUpdate struct {
	Name           *string  `json:"name,omitempty"`
	Type           *string  `json:"type,omitempty"`
	InitialBalance *float64 `json:"initial_balance,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

type Project struct {
	ID          int     `json:"id,omitempty"`
	UserID      int     `json:"user_id,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate     *string `json:"end_date,omitempty"`
}

// ProjectUpdate only carries the fields being changed.
type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

type Transaction struct {
	ID              int       `json:"id,omitempty"`
	UserID          int       `json:"user_id,omitempty"`
	AccountID       int       `json:"account_id"`
	ProjectID       *int      `json:"project_id"`
	CategoryID      *int      `json:"category_id"`
	Type            string    `json:"type"`
	Title           *string   `json:"title,omitempty"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	TransactionDate Timestamp `json:"transaction_date"`
	Notes           *string   `json:"notes,omitempty"`
	TagIDs          []int     `json:"tag_ids,omitempty"`
	CreatedAt       Timestamp `json:"created_at,omitempty"`
}

func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

type TransactionUpdate struct {
	AccountID       *int       `json:"account_id,omitempty"`
	ProjectID       *int       `json:"project_id,omitempty"`
	CategoryID      *int       `json:"category_id,omitempty"`
	Type            *string    `json:"type,omitempty"`
	Title           *string    `json:"title,omitempty"`
	Amount          *float64   `json:"amount,omitempty"`
	Currency        *string    `json:"currency,omitempty"`
	TransactionDate *Timestamp `json:"transaction_date,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	TagIDs          []int      `json:"tag_ids,omitempty"`
}

// Page controls list paging on the backend.
type Page struct {
	Skip  int
	Limit int
}

func DefaultPage() Page {
	return Page{Skip: 0, Limit: 100}
}
