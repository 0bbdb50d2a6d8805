package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/config"
	"github.com/ledgerbook/client/internal/router"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Global configuration instance
var cfg *config.Config
var app *application

var errLoginRequired = errors.New("authentication required")

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")

	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	// Load configuration before any command runs
	var err error
	cfg, err = loadConfig(cmd)

	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// check if verbose flag is set
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Get the base url override from the flag
	baseURL, err := cmd.Flags().GetString("base-url")
	if err == nil && len(baseURL) > 0 {
		if err := cfg.SetBaseURL(baseURL); err != nil {
			return fmt.Errorf("failed to set base url: %w", err)
		}
	}

	app, err = newApplication(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	return nil
}

// preRunSessionE loads configuration and then restores the persisted
// session, validating it with the backend.
func preRunSessionE(cmd *cobra.Command, args []string) error {
	if err := preRunConfigE(cmd, args); err != nil {
		return err
	}

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	if err := app.store.Init(ctx); err != nil {
		logrus.WithError(err).Errorln("Failed to restore session")
		return fmt.Errorf("failed to restore session: %w", err)
	}

	return nil
}

// promptAndLogin asks whether to sign in when a protected view was
// requested without a session.
func promptAndLogin(ctx context.Context) error {
	fmt.Println()
	fmt.Println(titleStyle.Render("Authentication Required"))
	fmt.Println("No active session found for", cfg.GetHostname())
	fmt.Println()

	var shouldLogin bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Would you like to sign in now?").
				Value(&shouldLogin),
		),
	)

	err := form.Run()
	if err != nil {
		return fmt.Errorf("login prompt cancelled: %w", err)
	}

	if !shouldLogin {
		return errLoginRequired
	}

	return runLoginForm(ctx, "")
}

// openProtected navigates to a protected path and, when the guard sends
// us to the login view instead, offers to sign in and tries once more.
func openProtected(ctx context.Context, path string) (router.Route, error) {
	route, err := app.navigator.Push(ctx, path)
	if err != nil {
		return router.Route{}, err
	}

	if route.Path != router.LoginPath {
		return route, nil
	}

	if err := promptAndLogin(ctx); err != nil {
		return router.Route{}, err
	}

	route, err = app.navigator.Push(ctx, path)
	if err != nil {
		return router.Route{}, err
	}
	if route.Path == router.LoginPath {
		return router.Route{}, errLoginRequired
	}

	return route, nil
}

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Ledger - personal bookkeeping from the terminal",
	Long: `Ledger is a command line client for the ledger bookkeeping service.

Sign in once with 'ledger login'; the session is kept between runs and
checked against the server before any protected view is shown.`,
	PersistentPreRunE: preRunSessionE,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveNavigator(cmd.Context())
	},
}

func init() {

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.config/ledger/config.yaml)")
	rootCmd.PersistentFlags().String("base-url", "", "Override the backend URL (e.g., http://127.0.0.1:8000)")

}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}
