// Package workflow implements the workflow engine: parsing a bundle of
// named workflows, resolving declared inputs, planning a dry run, and
// driving a real run to completion one step at a time (spec.md §4.E).
package workflow

import (
	"time"

	"github.com/oattyio/oatty/registry"
)

// InputSpec is one declared workflow input (spec.md §3 InputSpec).
type InputSpec struct {
	Description     string                  `json:"description,omitempty" yaml:"description,omitempty"`
	ValueKind       registry.ValueKind      `json:"valueKind" yaml:"valueKind"`
	Required        bool                    `json:"required" yaml:"required"`
	Default         registry.JSONValue      `json:"default,omitempty" yaml:"default,omitempty"`
	Provider        *registry.ValueProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	AutoSelectFirst bool                    `json:"autoSelectFirst,omitempty" yaml:"autoSelectFirst,omitempty"`
}

// RepeatSpec is a step's bounded-retry declaration (spec.md §3 StepSpec
// repeat/until, §4.E point 3). Until is a condition string evaluated in
// the same grammar as StepSpec.If; the step re-runs while it is false.
type RepeatSpec struct {
	Until       string `json:"until" yaml:"until"`
	MaxAttempts int    `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
}

// DependsOnPolicy controls what happens to a step when one of its
// dependencies did not succeed. The zero value is the spec's default:
// skip with upstream_not_succeeded.
type DependsOnPolicy string

const (
	PolicySkipUnlessSucceeded DependsOnPolicy = ""
	PolicyRunOnSkipped        DependsOnPolicy = "run_on_skipped"
)

// StepSpec is one step of a workflow (spec.md §3 StepSpec).
type StepSpec struct {
	ID              string             `json:"id" yaml:"id"`
	Run             string             `json:"run" yaml:"run"`
	With            registry.JSONValue `json:"with,omitempty" yaml:"with,omitempty"`
	If              string             `json:"if,omitempty" yaml:"if,omitempty"`
	DependsOn       []string           `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	DependsOnPolicy DependsOnPolicy    `json:"dependsOnPolicy,omitempty" yaml:"dependsOnPolicy,omitempty"`
	Repeat          *RepeatSpec        `json:"repeat,omitempty" yaml:"repeat,omitempty"`

	// sourceOrder is this step's index in the file, populated at parse
	// time; ties in the topological sort break by this value (spec.md
	// §4.E "Determinism").
	sourceOrder int
}

// WorkflowSpec is one named workflow (spec.md §3 WorkflowSpec).
type WorkflowSpec struct {
	Workflow string               `json:"workflow" yaml:"workflow"`
	Inputs   map[string]InputSpec `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Steps    []*StepSpec          `json:"steps" yaml:"steps"`
}

// Bundle is a mapping name -> WorkflowSpec (spec.md §3 "A bundle is a
// mapping name->WorkflowSpec").
type Bundle map[string]*WorkflowSpec

// Status is one of a StepResult/run's lifecycle states (spec.md §3, §4.E
// "Run lifecycle").
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
	StatusCancelled  Status = "cancelled"
	StatusPaused     Status = "paused"
	StatusCancelling Status = "cancelling"
)

// terminal reports whether s is one of the run-level terminal states.
func (s Status) terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// StepResult is the recorded outcome of one step (spec.md §3 StepResult).
// Status is monotonic except for pending -> any terminal via running,
// enforced by setStatus.
type StepResult struct {
	ID         string             `json:"id"`
	Status     Status             `json:"status"`
	Output     registry.JSONValue `json:"output,omitempty"`
	Logs       []string           `json:"logs,omitempty"`
	StartedAt  time.Time          `json:"startedAt,omitempty"`
	FinishedAt time.Time          `json:"finishedAt,omitempty"`

	// SkippedBecause records why a skipped step was skipped, surfaced in
	// dry_run_plan entries and in the run's step results alike.
	SkippedBecause string `json:"skippedBecause,omitempty"`
}

// statusRank gives setStatus's monotonicity check a total order; pending
// may move to anything, running may move to any terminal/paused state,
// everything else is terminal and may not move again.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusRunning:   1,
	StatusPaused:    1,
	StatusSucceeded: 2,
	StatusFailed:    2,
	StatusSkipped:   2,
	StatusCancelled: 2,
}

func (r *StepResult) setStatus(next Status) {
	if r.Status != "" && statusRank[r.Status] >= 2 {
		// Already terminal; spec.md §3 forbids moving off a terminal status.
		return
	}
	r.Status = next
}

// RunContext is the process-wide-for-one-run state (spec.md §3
// RunContext). Exclusively owned by the engine for the lifetime of one
// execute_workflow call.
type RunContext struct {
	Inputs  map[string]registry.JSONValue
	EnvVars map[string]string
	Steps   map[string]*StepResult
}

// NewRunContext returns an empty RunContext ready for resolve_inputs.
func NewRunContext(env map[string]string) *RunContext {
	return &RunContext{
		Inputs:  make(map[string]registry.JSONValue),
		EnvVars: env,
		Steps:   make(map[string]*StepResult),
	}
}
