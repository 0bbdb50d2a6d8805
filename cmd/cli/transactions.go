package cli

import (
	"fmt"
	"time"

	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/models"
	"github.com/ledgerbook/client/internal/router"
	"github.com/spf13/cobra"
)

func parseDate(value string) (time.Time, error) {
	if len(value) == 0 {
		return time.Now().UTC(), nil
	}
	if !common.IsValidDate(value) {
		return time.Time{}, fmt.Errorf("date must be %s, got %q", common.DateLayout, value)
	}
	return time.Parse(common.DateLayout, value)
}

func transactionType(cmd *cobra.Command) string {
	if income, _ := cmd.Flags().GetBool("income"); income {
		return models.TransactionTypeIncome
	}
	return models.TransactionTypeExpense
}

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "List and manage transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		page, err := pageFromFlags(cmd)
		if err != nil {
			return err
		}

		if _, err := openProtected(ctx, router.TransactionsPath); err != nil {
			return err
		}

		transactions, err := app.ledger.ListTransactions(ctx, page)
		if err != nil {
			return err
		}

		fmt.Println(renderTransactions(transactions))
		return nil
	},
}

var transactionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.TransactionsPath); err != nil {
			return err
		}

		transaction, err := app.ledger.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		fmt.Println(renderTransactions([]models.Transaction{*transaction}))
		return nil
	},
}

var transactionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a transaction",
	Long: `Record a transaction against an account. Transactions are expenses
unless --income is given.

Example:
  ledger transactions create --account 1 --amount 12.50 --title Lunch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.TransactionsPath); err != nil {
			return err
		}

		date, _ := cmd.Flags().GetString("date")
		transactionDate, err := parseDate(date)
		if err != nil {
			return err
		}

		transaction := models.Transaction{
			Type:            transactionType(cmd),
			Title:           stringFlag(cmd, "title"),
			Notes:           stringFlag(cmd, "notes"),
			TransactionDate: models.NewTimestamp(transactionDate),
		}
		transaction.AccountID, _ = cmd.Flags().GetInt("account")
		transaction.Amount, _ = cmd.Flags().GetFloat64("amount")
		transaction.Currency, _ = cmd.Flags().GetString("currency")

		if cmd.Flags().Changed("project") {
			project, _ := cmd.Flags().GetInt("project")
			transaction.ProjectID = &project
		}

		created, err := app.ledger.CreateTransaction(ctx, transaction)
		if err != nil {
			return err
		}

		fmt.Println(renderTransactions([]models.Transaction{*created}))
		return nil
	},
}

var transactionsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a recorded transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.TransactionsPath); err != nil {
			return err
		}

		update := models.TransactionUpdate{
			Title:    stringFlag(cmd, "title"),
			Notes:    stringFlag(cmd, "notes"),
			Currency: stringFlag(cmd, "currency"),
		}

		if cmd.Flags().Changed("amount") {
			amount, _ := cmd.Flags().GetFloat64("amount")
			update.Amount = &amount
		}
		if cmd.Flags().Changed("income") {
			kind := transactionType(cmd)
			update.Type = &kind
		}
		if cmd.Flags().Changed("date") {
			date, _ := cmd.Flags().GetString("date")
			transactionDate, err := parseDate(date)
			if err != nil {
				return err
			}
			timestamp := models.NewTimestamp(transactionDate)
			update.TransactionDate = &timestamp
		}
		if cmd.Flags().Changed("project") {
			project, _ := cmd.Flags().GetInt("project")
			update.ProjectID = &project
		}

		updated, err := app.ledger.UpdateTransaction(ctx, id, update)
		if err != nil {
			return err
		}

		fmt.Println(renderTransactions([]models.Transaction{*updated}))
		return nil
	},
}

var transactionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.TransactionsPath); err != nil {
			return err
		}

		if err := app.ledger.DeleteTransaction(ctx, id); err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Deleted transaction %d", id)))
		return nil
	},
}

func init() {
	pageFlags(transactionsCmd)

	transactionsCreateCmd.Flags().Int("account", 0, "Account id the transaction belongs to")

	for _, cmd := range []*cobra.Command{transactionsCreateCmd, transactionsUpdateCmd} {
		cmd.Flags().Float64("amount", 0, "Amount, always positive")
		cmd.Flags().Bool("income", false, "Record income instead of an expense")
		cmd.Flags().String("title", "", "Short description")
		cmd.Flags().String("notes", "", "Free form notes")
		cmd.Flags().String("currency", defaultCurrency, "Currency code")
		cmd.Flags().String("date", "", "Transaction date (YYYY-MM-DD, default today)")
		cmd.Flags().Int("project", 0, "Project id to file the transaction under")
	}
	transactionsCreateCmd.MarkFlagRequired("account")
	transactionsCreateCmd.MarkFlagRequired("amount")

	transactionsCmd.AddCommand(transactionsShowCmd)
	transactionsCmd.AddCommand(transactionsCreateCmd)
	transactionsCmd.AddCommand(transactionsUpdateCmd)
	transactionsCmd.AddCommand(transactionsDeleteCmd)

	rootCmd.AddCommand(transactionsCmd)
}
