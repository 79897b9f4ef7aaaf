package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/oattyio/oatty/dispatch"
	"github.com/oattyio/oatty/internal/oatlog"
	"github.com/oattyio/oatty/internal/suggest"
	"github.com/oattyio/oatty/registry"
	wf "github.com/oattyio/oatty/workflow"

	"github.com/google/uuid"
)

// runnerAdapter satisfies workflow.Runner over *dispatch.Dispatcher,
// routing to the HTTP or MCP path by the resolved command's own execution
// kind. It lives here, not in dispatch or workflow: dispatch does not
// import workflow, and workflow imports dispatch only for the Plan data
// type, not its behaviour; the CLI is the one place that depends on both.
type runnerAdapter struct {
	d *dispatch.Dispatcher
}

func (r runnerAdapter) Run(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
	if cmd.Execution.Kind == registry.ExecutionMCP {
		return r.d.ExecuteMCPCommand(ctx, cmd, args)
	}
	return r.d.Execute(ctx, cmd, args)
}

func newWorkflowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "List, preview, and run workflows embedded in the imported catalog",
	}
	cmd.AddCommand(
		newWorkflowListCmd(app),
		newWorkflowPreviewCmd(app),
		newWorkflowRunCmd(app),
	)
	return cmd
}

func newWorkflowListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every workflow embedded in the imported catalog",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, manifest, err := app.LoadCatalog()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(manifest.Workflows))
			for name := range manifest.Workflows {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newWorkflowPreviewCmd(app *App) *cobra.Command {
	var inputFlags []string
	cmd := &cobra.Command{
		Use:   "preview <workflow-id>",
		Short: "Emit the dry-run plan for a workflow without making any calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cat, manifest, err := app.LoadCatalog()
			if err != nil {
				return err
			}
			spec, ok := manifest.Workflows[args[0]]
			if !ok {
				known := make([]string, 0, len(manifest.Workflows))
				for k := range manifest.Workflows {
					known = append(known, k)
				}
				return &registry.WorkflowNotFoundError{ID: args[0], Suggestion: suggest.Nearest(args[0], known, suggest.DefaultThreshold)}
			}

			d := app.NewDispatcher(cat)
			runCtx, err := resolveRunInputs(d, cat, spec, inputFlags)
			if err != nil {
				return err
			}

			entries, err := wf.DryRunPlan(spec, runCtx, cat, d)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.SkippedBecause != "" {
					fmt.Printf("%-20s SKIPPED (%s)\n", e.ID, e.SkippedBecause)
					continue
				}
				if e.MCPServer != "" {
					fmt.Printf("%-20s mcp:%s/%s\n", e.ID, e.MCPServer, e.MCPTool)
					continue
				}
				fmt.Printf("%-20s %s %s\n", e.ID, e.Method, e.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&inputFlags, "input", nil, "workflow input as key=value (value parsed as JSON when it looks like a JSON literal)")
	return cmd
}

func newWorkflowRunCmd(app *App) *cobra.Command {
	var inputFlags []string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run <workflow-id>",
		Short: "Execute a workflow to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cat, manifest, err := app.LoadCatalog()
			if err != nil {
				return err
			}
			spec, ok := manifest.Workflows[args[0]]
			if !ok {
				known := make([]string, 0, len(manifest.Workflows))
				for k := range manifest.Workflows {
					known = append(known, k)
				}
				return &registry.WorkflowNotFoundError{ID: args[0], Suggestion: suggest.Nearest(args[0], known, suggest.DefaultThreshold)}
			}

			d := app.NewDispatcher(cat)
			runCtx, err := resolveRunInputs(d, cat, spec, inputFlags)
			if err != nil {
				return err
			}

			if dryRun {
				entries, err := wf.DryRunPlan(spec, runCtx, cat, d)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Printf("%-20s %s %s\n", e.ID, e.Method, e.URL)
				}
				return nil
			}

			runID := uuid.New().String()
			log := oatlog.WithRun(app.Log, runID)
			providers := BuildProviderRegistry(cat, d)

			run, err := wf.NewRun(spec, runCtx, cat, runnerAdapter{d: d}, providers, nil, log)
			if err != nil {
				return err
			}
			status, err := run.Execute(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("run %s: %s\n", runID, status)
			for id, result := range runCtx.Steps {
				fmt.Printf("  %-20s %s\n", id, result.Status)
			}
			if status == wf.StatusFailed {
				return fmt.Errorf("workflow %s failed", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&inputFlags, "input", nil, "workflow input as key=value (value parsed as JSON when it looks like a JSON literal)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without executing any step")
	return cmd
}

// resolveRunInputs builds a RunContext seeded with --input overrides and
// the process environment, then runs spec.md §4.E's resolve_inputs
// non-interactively (no Selector; a provider yielding more than one
// candidate needs the workflow's auto_select_first to be set).
func resolveRunInputs(d *dispatch.Dispatcher, cat *registry.Catalog, spec *wf.WorkflowSpec, inputFlags []string) (*wf.RunContext, error) {
	runCtx := wf.NewRunContext(snapshotEnv())
	for _, kv := range inputFlags {
		k, v, ok := splitKV(kv)
		if !ok {
			return nil, &UsageError{Detail: fmt.Sprintf("malformed --input %q, want key=value", kv)}
		}
		runCtx.Inputs[k] = parseValue(v)
	}

	providers := BuildProviderRegistry(cat, d)
	providers.BeginPass()
	if err := wf.ResolveInputs(context.Background(), spec, runCtx, providers, nil); err != nil {
		return nil, err
	}
	return runCtx, nil
}
