package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/router"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const exitAction = "exit"

var openCmd = &cobra.Command{
	Use:   "open [path]",
	Short: "Open a view such as /dashboard or /transactions",
	Long: `Open a view by its path. Protected views require a session; when there
is none you are offered the sign in form first.

Views:
  /dashboard, /transactions, /accounts, /projects, /auth-test
  /login, /register`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := router.RootPath
		if len(args) > 0 {
			path = args[0]
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		return openPath(ctx, path)
	},
}

// openPath navigates to path and shows whatever view navigation lands on.
func openPath(ctx context.Context, path string) error {
	route, err := app.navigator.Push(ctx, path)
	if err != nil {
		return err
	}

	switch route.Path {
	case router.LoginPath:
		if err := runLoginForm(ctx, ""); err != nil {
			return err
		}
		// Sign in leads on to the view that was asked for
		if target, _ := router.Lookup(path); target.Path == router.LoginPath {
			path = router.DashboardPath
		}
		if route, err = openProtected(ctx, path); err != nil {
			return err
		}

	case router.RegisterPath:
		return runRegister(registerCmd, nil)
	}

	view, err := renderRoute(ctx, app.ledger, app.store, route)
	if err != nil {
		return err
	}

	fmt.Println(view)
	return nil
}

// runInteractiveNavigator lets the user move between views until they
// choose to exit.
func runInteractiveNavigator(parent context.Context) error {
	fmt.Println(titleStyle.Render("Ledger"))

	for {
		path, err := promptForRoute()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("failed to get view: %w", err)
		}

		if path == exitAction {
			fmt.Println(successStyle.Render("Goodbye!"))
			return nil
		}

		ctx, cleanup := common.WithInterrupt(parent)
		err = openPath(ctx, path)
		cleanup()

		if err != nil {
			logrus.WithError(err).Debugln("View failed")
			fmt.Println(errorStyle.Render("Failed to open view: " + err.Error()))
		}

		fmt.Println()
		time.Sleep(300 * time.Millisecond)
	}
}

// promptForRoute offers the views that make sense for the current session.
func promptForRoute() (string, error) {
	var options []huh.Option[string]

	for _, route := range router.Routes() {
		if len(route.Redirect) > 0 {
			continue
		}
		if route.IsGuestOnly() && app.store.IsAuthenticated() {
			continue
		}
		options = append(options, huh.NewOption(route.Title, route.Path))
	}

	if app.store.IsAuthenticated() {
		options = append(options, huh.NewOption("Sign out", "logout"))
	}
	options = append(options, huh.NewOption("Exit", exitAction))

	var selected string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where would you like to go?").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}

	if selected == "logout" {
		app.store.Logout(context.Background())
		fmt.Println(successStyle.Render("Signed out"))
		return promptForRoute()
	}

	return selected, nil
}

func init() {
	rootCmd.AddCommand(openCmd)
}
