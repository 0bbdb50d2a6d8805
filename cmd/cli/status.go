package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Session"))
		fmt.Printf("Server:   %s\n", cfg.GetBaseURL())
		fmt.Printf("Storage:  %s\n", cfg.Session.Backend)
		fmt.Print(renderSessionStatus(app.store, time.Now()))

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch || !app.store.IsAuthenticated() {
			return nil
		}

		interval, _ := cmd.Flags().GetDuration("interval")

		fmt.Println()
		program := tea.NewProgram(newWatchModel(cmd.Context(), app, interval))
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("failed to run session monitor: %w", err)
		}

		if model, ok := final.(watchModel); ok && model.err != nil {
			return model.err
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolP("watch", "w", false, "Keep checking the session with the server until it ends")
	statusCmd.Flags().Duration("interval", 5*time.Second, "How often to check the session when watching")

	rootCmd.AddCommand(statusCmd)
}
