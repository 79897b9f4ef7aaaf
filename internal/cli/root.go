package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the full command tree (spec.md §6), grounded on
// rashadism-openchoreo's pkg/cli/core/root.BuildRootCmd: one root command,
// subcommands added as a flat AddCommand call per top-level resource, each
// built by its own New*Cmd constructor taking the shared *App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "oatty",
		Short:         "Turn OpenAPI catalogs into a runnable command surface and workflow engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCatalogCmd(app),
		newRunCmd(app),
		newWorkflowCmd(app),
	)

	return root
}

// Execute builds the App from environment configuration and runs the
// command tree, returning the error RunE produced so main can translate
// it through ExitCodeFor.
func Execute(args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	app := NewApp(cfg)

	root := NewRootCmd(app)
	root.SetArgs(args)
	return root.Execute()
}
