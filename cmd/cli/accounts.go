package cli

import (
	"fmt"
	"strconv"

	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/models"
	"github.com/ledgerbook/client/internal/router"
	"github.com/spf13/cobra"
)

func pageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("skip", 0, "Number of records to skip")
	cmd.Flags().Int("limit", models.DefaultPage().Limit, "Maximum number of records to show")
}

const maxPageLimit = "1000"

func pageFromFlags(cmd *cobra.Command) (models.Page, error) {
	page := models.DefaultPage()
	page.Skip, _ = cmd.Flags().GetInt("skip")
	page.Limit, _ = cmd.Flags().GetInt("limit")

	if msg := common.ValidateNumberRange(strconv.Itoa(page.Skip), "0", ""); len(msg) > 0 {
		return page, fmt.Errorf("--skip: %s", msg)
	}
	if msg := common.ValidateNumberRange(strconv.Itoa(page.Limit), "1", maxPageLimit); len(msg) > 0 {
		return page, fmt.Errorf("--limit: %s", msg)
	}
	return page, nil
}

func parseID(arg string) (int, error) {
	if !common.IsValidNumber(arg, false) {
		return 0, fmt.Errorf("id must be a number, got %q", arg)
	}
	return strconv.Atoi(arg)
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List and manage accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		page, err := pageFromFlags(cmd)
		if err != nil {
			return err
		}

		if _, err := openProtected(ctx, router.AccountsPath); err != nil {
			return err
		}

		accounts, err := app.ledger.ListAccounts(ctx, page)
		if err != nil {
			return err
		}

		fmt.Println(renderAccounts(accounts))
		return nil
	},
}

var accountsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.AccountsPath); err != nil {
			return err
		}

		account, err := app.ledger.GetAccount(ctx, id)
		if err != nil {
			return err
		}

		fmt.Println(renderAccounts([]models.Account{*account}))
		return nil
	},
}

var accountsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.AccountsPath); err != nil {
			return err
		}

		account := models.Account{IsActive: true}
		account.Name, _ = cmd.Flags().GetString("name")
		account.Type, _ = cmd.Flags().GetString("type")
		account.InitialBalance, _ = cmd.Flags().GetFloat64("balance")

		created, err := app.ledger.CreateAccount(ctx, account)
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Created account %s (%d)", created.Name, created.ID)))
		return nil
	},
}

var accountsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename, retype or deactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.AccountsPath); err != nil {
			return err
		}

		update := models.AccountUpdate{
			Name: stringFlag(cmd, "name"),
			Type: stringFlag(cmd, "type"),
		}
		if cmd.Flags().Changed("balance") {
			balance, _ := cmd.Flags().GetFloat64("balance")
			update.InitialBalance = &balance
		}
		if cmd.Flags().Changed("active") {
			active, _ := cmd.Flags().GetBool("active")
			update.IsActive = &active
		}

		updated, err := app.ledger.UpdateAccount(ctx, id, update)
		if err != nil {
			return err
		}

		fmt.Println(renderAccounts([]models.Account{*updated}))
		return nil
	},
}

var accountsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.AccountsPath); err != nil {
			return err
		}

		if err := app.ledger.DeleteAccount(ctx, id); err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Deleted account %d", id)))
		return nil
	},
}

func init() {
	pageFlags(accountsCmd)

	for _, cmd := range []*cobra.Command{accountsCreateCmd, accountsUpdateCmd} {
		cmd.Flags().String("name", "", "Account name")
		cmd.Flags().String("type", "cash", "Account type (cash, bank, credit, ...)")
		cmd.Flags().Float64("balance", 0, "Initial balance")
	}
	accountsCreateCmd.MarkFlagRequired("name")
	accountsUpdateCmd.Flags().Bool("active", true, "Whether the account is in use")

	accountsCmd.AddCommand(accountsShowCmd)
	accountsCmd.AddCommand(accountsCreateCmd)
	accountsCmd.AddCommand(accountsUpdateCmd)
	accountsCmd.AddCommand(accountsDeleteCmd)

	rootCmd.AddCommand(accountsCmd)
}
