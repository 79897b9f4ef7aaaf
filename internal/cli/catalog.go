package cli

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"

	"github.com/oattyio/oatty/codec"
	"github.com/oattyio/oatty/openapi"
	"github.com/oattyio/oatty/registry"
	"github.com/oattyio/oatty/workflow"
)

// helpWrapWidth is the column the CLI wraps command summaries at when
// listing the catalog, grounded on go-wordwrap being a teacher dependency
// never exercised by arazzo1/convert/generator (a pure data library with
// no terminal output of its own).
const helpWrapWidth = 100

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the imported OpenAPI command catalog",
	}
	cmd.AddCommand(
		newCatalogImportCmd(app),
		newCatalogListCmd(app),
		newCatalogSearchCmd(app),
	)
	return cmd
}

func newCatalogImportCmd(app *App) *cobra.Command {
	var workflowsPath string
	cmd := &cobra.Command{
		Use:   "import <openapi-file>",
		Short: "Generate a command catalog from an OpenAPI v3 document",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return &UsageError{Detail: fmt.Sprintf("reading %s: %v", args[0], err)}
			}

			doc, err := openapi.ParseDocument(data)
			if err != nil {
				return err
			}
			commands, err := openapi.Generate(doc)
			if err != nil {
				return err
			}

			manifest := &codec.Manifest{Commands: commands}
			if workflowsPath != "" {
				wfData, err := os.ReadFile(workflowsPath)
				if err != nil {
					return &UsageError{Detail: fmt.Sprintf("reading %s: %v", workflowsPath, err)}
				}
				bundle, err := workflow.ParseBundleWithLogger(wfData, app.Log)
				if err != nil {
					return err
				}
				manifest.Workflows = bundle
			}

			if err := app.SaveManifest(manifest); err != nil {
				return err
			}
			fmt.Printf("imported %d commands into %s\n", len(manifest.Commands), app.manifestPath())
			return nil
		},
	}
	cmd.Flags().StringVar(&workflowsPath, "workflows", "", "workflow bundle file to embed alongside the generated catalog")
	return cmd
}

func newCatalogListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every command in the imported catalog, grouped by group",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cat, _, err := app.LoadCatalog()
			if err != nil {
				return err
			}
			printCommands(cat.Commands)
			return nil
		},
	}
}

func newCatalogSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search catalog commands by id or summary substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cat, _, err := app.LoadCatalog()
			if err != nil {
				return err
			}
			printCommands(cat.Search(args[0]))
			return nil
		},
	}
}

func printCommands(commands []*registry.CommandSpec) {
	for _, cmd := range commands {
		fmt.Printf("%-40s %s\n", cmd.ColonID(), wordwrap.WrapString(cmd.Summary, helpWrapWidth))
	}
}
