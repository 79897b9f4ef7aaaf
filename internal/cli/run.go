package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oattyio/oatty/registry"
)

// newRunCmd implements spec.md §6's "(3) execute a command" and "(5) emit
// dry-run plans (--dry-run)". Flag parsing is manual (DisableFlagParsing)
// because the set of valid flags is only known once the command id is
// resolved against the loaded catalog — cobra's own flag set is declared
// before Args runs.
func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:                "run <command-id> [positional...] [--flag=value...]",
		Short:              "Execute a catalog command, or emit its plan with --dry-run",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE: func(_ *cobra.Command, rawArgs []string) error {
			dryRun, rawArgs := extractBoolFlag(rawArgs, "--dry-run")
			confirm, rawArgs := extractBoolFlag(rawArgs, "--confirm")
			if len(rawArgs) == 0 {
				return &UsageError{Detail: "missing command id"}
			}
			id := rawArgs[0]
			rest := rawArgs[1:]

			cat, _, err := app.LoadCatalog()
			if err != nil {
				return err
			}
			cmdSpec, err := cat.Lookup(id)
			if err != nil {
				return err
			}

			args, err := bindArgs(cmdSpec, rest)
			if err != nil {
				return err
			}
			if confirm {
				args["confirm"] = true
			}

			d := app.NewDispatcher(cat)

			if dryRun {
				plan, err := d.Plan(cmdSpec, args)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s\n", plan.Method, plan.URL)
				for k, v := range plan.Headers {
					fmt.Printf("  %s: %s\n", k, v)
				}
				if len(plan.Body) > 0 {
					fmt.Printf("  body: %s\n", plan.Body)
				}
				return nil
			}

			out, err := d.Execute(context.Background(), cmdSpec, args)
			if err != nil {
				return err
			}
			fmt.Printf("%v\n", out)
			return nil
		},
	}
	return cmd
}

// bindArgs maps a command's positionals (consumed in order from the
// remaining non-flag words) and `--name=value`/`--name value` flags into
// the JSONValue-typed argument map the dispatcher expects.
func bindArgs(cmd *registry.CommandSpec, words []string) (map[string]registry.JSONValue, error) {
	args := make(map[string]registry.JSONValue)
	posIdx := 0

	for i := 0; i < len(words); i++ {
		w := words[i]
		if !strings.HasPrefix(w, "--") {
			if posIdx >= len(cmd.PositionalArgs) {
				return nil, &UsageError{Detail: fmt.Sprintf("unexpected positional argument %q", w)}
			}
			args[cmd.PositionalArgs[posIdx].Name] = parseValue(w)
			posIdx++
			continue
		}

		name := strings.TrimPrefix(w, "--")
		if k, v, ok := splitKV(name); ok {
			args[k] = parseValue(v)
			continue
		}
		if i+1 >= len(words) {
			return nil, &UsageError{Detail: fmt.Sprintf("flag --%s requires a value", name)}
		}
		i++
		args[name] = parseValue(words[i])
	}

	for _, p := range cmd.PositionalArgs {
		if p.Required {
			if _, ok := args[p.Name]; !ok {
				return nil, &registry.InputMissingError{Name: p.Name}
			}
		}
	}
	for _, f := range cmd.Flags {
		if f.Required {
			if _, ok := args[f.Name]; !ok {
				return nil, &registry.InputMissingError{Name: f.Name}
			}
		}
	}
	return args, nil
}

// extractBoolFlag removes a bare boolean flag (no value) from args,
// reporting whether it was present.
func extractBoolFlag(args []string, name string) (bool, []string) {
	out := make([]string, 0, len(args))
	found := false
	for _, a := range args {
		if a == name {
			found = true
			continue
		}
		out = append(out, a)
	}
	return found, out
}
