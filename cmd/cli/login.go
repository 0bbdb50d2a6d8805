package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/session"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the ledger service",
	Long:  "Prompts for a username and password and keeps the issued token for later commands",
	RunE:  runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	if app.store.HasUser() {
		fmt.Println(infoStyle.Render(fmt.Sprintf("Already signed in as %s", app.store.User().GetName())))
		return nil
	}

	if len(username) > 0 && len(password) > 0 {
		return login(ctx, username, password)
	}

	return runLoginForm(ctx, username)
}

// runLoginForm prompts for whatever credentials are missing and signs in.
func runLoginForm(ctx context.Context, username string) error {
	fmt.Println(titleStyle.Render("Sign in"))
	fmt.Println("Server:", cfg.GetBaseURL())
	fmt.Println()

	var password string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(required("password")),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("login cancelled")
		}
		return fmt.Errorf("login prompt failed: %w", err)
	}

	return login(ctx, username, password)
}

func login(ctx context.Context, username string, password string) error {
	if err := app.store.Login(ctx, username, password); err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			fmt.Println(errorStyle.Render(authErr.Message))
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Login successful!"))
	fmt.Printf("Signed in as %s\n", app.store.User().GetName())
	fmt.Println()

	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if len(s) == 0 {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		wasSignedIn := app.store.IsAuthenticated()

		app.store.Logout(cmd.Context())

		if wasSignedIn {
			fmt.Println(successStyle.Render("Signed out"))
		} else {
			fmt.Println(infoStyle.Render("No active session"))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Username to sign in with")
	loginCmd.Flags().String("password", "", "Password (prompted for when omitted)")

	// Add the command to the root
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
