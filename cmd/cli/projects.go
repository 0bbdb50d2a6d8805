package cli

import (
	"fmt"

	"github.com/ledgerbook/client/internal/common"
	"github.com/ledgerbook/client/internal/models"
	"github.com/ledgerbook/client/internal/router"
	"github.com/spf13/cobra"
)

// stringFlag returns a pointer to the flag value, or nil when the flag
// was not given.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List and manage projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		page, err := pageFromFlags(cmd)
		if err != nil {
			return err
		}

		if _, err := openProtected(ctx, router.ProjectsPath); err != nil {
			return err
		}

		projects, err := app.ledger.ListProjects(ctx, page)
		if err != nil {
			return err
		}

		fmt.Println(renderProjects(projects))
		return nil
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.ProjectsPath); err != nil {
			return err
		}

		project, err := app.ledger.GetProject(ctx, id)
		if err != nil {
			return err
		}

		fmt.Println(renderProjects([]models.Project{*project}))
		return nil
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.ProjectsPath); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		project := models.Project{
			Name:        name,
			Description: stringFlag(cmd, "description"),
			StartDate:   stringFlag(cmd, "start"),
			EndDate:     stringFlag(cmd, "end"),
		}

		created, err := app.ledger.CreateProject(ctx, project)
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Created project %s (%d)", created.Name, created.ID)))
		return nil
	},
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.ProjectsPath); err != nil {
			return err
		}

		update := models.ProjectUpdate{
			Name:        stringFlag(cmd, "name"),
			Description: stringFlag(cmd, "description"),
			StartDate:   stringFlag(cmd, "start"),
			EndDate:     stringFlag(cmd, "end"),
		}

		updated, err := app.ledger.UpdateProject(ctx, id, update)
		if err != nil {
			return err
		}

		fmt.Println(renderProjects([]models.Project{*updated}))
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		if _, err := openProtected(ctx, router.ProjectsPath); err != nil {
			return err
		}

		if err := app.ledger.DeleteProject(ctx, id); err != nil {
			return err
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Deleted project %d", id)))
		return nil
	},
}

func init() {
	pageFlags(projectsCmd)

	for _, cmd := range []*cobra.Command{projectsCreateCmd, projectsUpdateCmd} {
		cmd.Flags().String("name", "", "Project name")
		cmd.Flags().String("description", "", "Project description")
		cmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
		cmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	}
	projectsCreateCmd.MarkFlagRequired("name")

	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsUpdateCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)

	rootCmd.AddCommand(projectsCmd)
}
