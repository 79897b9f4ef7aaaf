package workflow

import (
	"github.com/oattyio/oatty/dispatch"
	"github.com/oattyio/oatty/registry"
)

// Planner is the minimal plan-building surface dry_run_plan needs:
// resolve a command's arguments into a side-effect-free request shape, no
// network call. Satisfied structurally by *dispatch.Dispatcher; declared
// here (and returning dispatch.Plan, a plain data type) rather than
// re-declared as a second struct, since a plan's shape is definitionally
// the dispatcher's.
type Planner interface {
	Plan(cmd *registry.CommandSpec, args map[string]registry.JSONValue) (*dispatch.Plan, error)
}

// PlanEntry is one row of a dry_run_plan result (spec.md §4.E
// "{id, command, method, url, headers, body, skipped_because?}"). Exactly
// one of the HTTP fields (Method/URL/Headers/Body) or the MCP fields
// (MCPServer/MCPTool) is populated, depending on the target command's
// execution kind; neither is populated for a skipped step or a Noop
// command.
type PlanEntry struct {
	ID      string
	Command string

	Method  string
	URL     string
	Headers map[string]string
	Body    []byte

	MCPServer string
	MCPTool   string

	SkippedBecause string
}

// DryRunPlan implements spec.md §4.E's dry_run_plan(spec, ctx, registry):
// steps in topological order, conditions evaluated, path placeholders
// percent-encoded by the planner, no network calls made.
func DryRunPlan(spec *WorkflowSpec, run *RunContext, catalog *registry.Catalog, planner Planner) ([]PlanEntry, error) {
	ordered, err := topoOrder(spec.Steps)
	if err != nil {
		return nil, err
	}

	scope := newRunContextScope(run)
	entries := make([]PlanEntry, 0, len(ordered))
	for _, step := range ordered {
		entry := PlanEntry{ID: step.ID, Command: step.Run}

		ok, err := evalStepCondition(step, scope)
		if err != nil {
			return nil, err
		}
		if !ok {
			entry.SkippedBecause = "condition_false"
			entries = append(entries, entry)
			continue
		}

		cmd, err := catalog.Lookup(step.Run)
		if err != nil {
			return nil, err
		}
		args, err := resolveStepArgs(step, scope)
		if err != nil {
			return nil, err
		}

		switch cmd.Execution.Kind {
		case registry.ExecutionHTTP:
			plan, err := planner.Plan(cmd, args)
			if err != nil {
				return nil, err
			}
			entry.Method = plan.Method
			entry.URL = plan.URL
			entry.Headers = plan.Headers
			entry.Body = plan.Body
		case registry.ExecutionMCP:
			entry.MCPServer = cmd.Execution.Mcp.ServerName
			entry.MCPTool = cmd.Execution.Mcp.ToolName
		}

		entries = append(entries, entry)
	}
	return entries, nil
}
