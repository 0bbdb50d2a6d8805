package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/models"
	"github.com/ledgerbook/client/internal/session"
	"github.com/spf13/cobra"
)

const defaultCurrency = "CNY"

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the ledger service",
	Long: `Create an account on the ledger service.

Registration does not sign you in, run 'ledger login' afterwards.`,
	RunE: runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("Create an account"))
	fmt.Println("Server:", cfg.GetBaseURL())
	fmt.Println()

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	registration := models.Registration{DefaultCurrency: defaultCurrency}
	registration.Username, _ = cmd.Flags().GetString("username")
	registration.Email, _ = cmd.Flags().GetString("email")
	if currency, _ := cmd.Flags().GetString("currency"); len(currency) > 0 {
		registration.DefaultCurrency = currency
	}

	var confirm string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&registration.Username).
				Validate(required("username")),
			huh.NewInput().
				Title("Email").
				Value(&registration.Email).
				Validate(func(s string) error {
					if !common.IsValidEmail(s) {
						return fmt.Errorf("a valid email address is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&registration.Password).
				Validate(required("password")),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != registration.Password {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("registration cancelled")
		}
		return fmt.Errorf("registration prompt failed: %w", err)
	}

	user, err := app.store.Register(ctx, registration)
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			fmt.Println(errorStyle.Render(authErr.Message))
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Println()
	fmt.Println(successStyle.Render(fmt.Sprintf("Account %s created", user.GetName())))
	fmt.Println("Sign in with: ledger login -u", user.Username)

	return nil
}

func init() {
	registerCmd.Flags().StringP("username", "u", "", "Username for the new account")
	registerCmd.Flags().String("email", "", "Email address for the new account")
	registerCmd.Flags().String("currency", defaultCurrency, "Default currency for the new account")

	rootCmd.AddCommand(registerCmd)
}
