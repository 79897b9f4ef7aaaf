package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"
	"github.com/oattyio/oatty/provider"
	"github.com/oattyio/oatty/registry"
	"github.com/oattyio/oatty/template"
)

// Runner is the minimal command-invocation surface execute_workflow needs.
// *dispatch.Dispatcher does not implement it directly (its method is named
// Execute); internal/cli adapts it. Declared locally, like the provider
// package's own Dispatcher interface, so that dispatch's behaviour is not a
// dependency of this package (dry_run.go imports dispatch only for the Plan
// data type) and step execution is trivially fakeable in tests.
type Runner interface {
	Run(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error)
}

// Run drives one workflow spec through its full lifecycle (spec.md §4.E
// "Run lifecycle"): pending -> running -> (paused <-> running)* ->
// {succeeded, failed, cancelled}. One Run is exclusively owned by the
// engine for the lifetime of one invocation; it is not safe to call
// Execute concurrently from two goroutines, though Pause/Resume/Cancel may
// be called from another goroutine while Execute is in flight.
type Run struct {
	spec      *WorkflowSpec
	ctx       *RunContext
	catalog   *registry.Catalog
	runner    Runner
	providers *provider.Registry
	selector  Selector
	log       logr.Logger

	ordered []*StepSpec

	mu        sync.Mutex
	status    Status
	pauseReq  bool
	cancelReq bool
	cancelFn  context.CancelFunc
}

// NewRun resolves the step order once (failing on any validation error
// topoOrder surfaces) and returns a Run in pending status, ready for
// Execute. providers/selector may be nil if the workflow declares no
// provider-backed inputs and resolve_inputs has already populated
// runCtx.Inputs.
func NewRun(spec *WorkflowSpec, runCtx *RunContext, catalog *registry.Catalog, runner Runner, providers *provider.Registry, selector Selector, log logr.Logger) (*Run, error) {
	ordered, err := topoOrder(spec.Steps)
	if err != nil {
		return nil, err
	}
	return &Run{
		spec:      spec,
		ctx:       runCtx,
		catalog:   catalog,
		runner:    runner,
		providers: providers,
		selector:  selector,
		log:       log,
		ordered:   ordered,
		status:    StatusPending,
	}, nil
}

// Status returns the run's current lifecycle state.
func (r *Run) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Pause requests that the run stop at its next suspension point (i),
// before starting the next step. It takes effect on the next Execute
// iteration, not immediately.
func (r *Run) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauseReq = true
}

// Resume clears a pending pause and allows a paused run's next Execute
// call to continue from the next not-yet-started step.
func (r *Run) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusPaused {
		return fmt.Errorf("run is not paused (status %s)", r.status)
	}
	r.pauseReq = false
	r.status = StatusRunning
	return nil
}

// Cancel marks the run cancelling and cancels its in-flight context, which
// propagates into the dispatcher's HTTP request or MCP call at their own
// suspension points (ii)/(iii). The run transitions to cancelled once
// Execute observes the cancellation, at the current or next suspension
// point.
func (r *Run) Cancel() {
	r.mu.Lock()
	r.cancelReq = true
	if r.status != StatusSucceeded && r.status != StatusFailed && r.status != StatusCancelled {
		r.status = StatusCancelling
	}
	cancelFn := r.cancelFn
	r.mu.Unlock()
	if cancelFn != nil {
		cancelFn()
	}
}

// Done detaches a terminal run, per spec.md §4.E. There is no UI
// attachment to release in this package; Done only verifies the run has
// actually reached a terminal status, so a caller cannot mistakenly detach
// from a run that is still live.
func (r *Run) Done() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.status.terminal() {
		return fmt.Errorf("run is not terminal (status %s)", r.status)
	}
	return nil
}

// Execute implements spec.md §4.E's execute_workflow(spec, ctx, runner). It
// runs steps in topological order starting from the first not-yet-started
// one, so calling Execute again on a paused run resumes it exactly where
// it left off. It returns the run's terminal (or paused) status.
func (r *Run) Execute(ctx context.Context) (Status, error) {
	r.mu.Lock()
	if r.status == StatusPending {
		r.status = StatusRunning
	}
	r.mu.Unlock()

	execCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelFn = cancel
	r.mu.Unlock()
	defer cancel()

	scope := newRunContextScope(r.ctx)
	failed := false

	for _, step := range r.ordered {
		if existing, ok := r.ctx.Steps[step.ID]; ok && existing.Status != StatusPending {
			failed = failed || existing.Status == StatusFailed
			continue // already started in a prior Execute call (resume)
		}

		r.mu.Lock()
		cancelled := r.cancelReq
		paused := r.pauseReq
		r.mu.Unlock()
		if cancelled {
			return r.finish(StatusCancelled), nil
		}
		if paused {
			r.mu.Lock()
			r.status = StatusPaused
			r.mu.Unlock()
			return StatusPaused, nil
		}

		result := r.runStep(execCtx, step, scope)
		r.ctx.Steps[step.ID] = result

		switch result.Status {
		case StatusFailed:
			failed = true
		case StatusCancelled:
			return r.finish(StatusCancelled), nil
		}
	}

	if failed {
		return r.finish(StatusFailed), nil
	}
	return r.finish(StatusSucceeded), nil
}

func (r *Run) finish(status Status) Status {
	r.mu.Lock()
	r.status = status
	r.mu.Unlock()
	return status
}

// runStep executes a single step to one of its terminal StepResult
// statuses, honoring depends_on, if, and repeat.until (spec.md §4.E
// points 1-3).
func (r *Run) runStep(ctx context.Context, step *StepSpec, scope runContextScope) *StepResult {
	result := &StepResult{ID: step.ID, Status: StatusRunning, StartedAt: time.Now()}

	if reason, skip := r.upstreamSkipReason(step); skip {
		result.setStatus(StatusSkipped)
		result.SkippedBecause = reason
		result.FinishedAt = time.Now()
		return result
	}

	ok, err := evalStepCondition(step, scope)
	if err != nil {
		result.setStatus(StatusFailed)
		result.Logs = append(result.Logs, err.Error())
		result.FinishedAt = time.Now()
		return result
	}
	if !ok {
		result.setStatus(StatusSkipped)
		result.SkippedBecause = "condition_false"
		result.FinishedAt = time.Now()
		return result
	}

	cmd, err := r.catalog.Lookup(step.Run)
	if err != nil {
		result.setStatus(StatusFailed)
		result.Logs = append(result.Logs, err.Error())
		result.FinishedAt = time.Now()
		return result
	}

	args, err := resolveStepArgs(step, scope)
	if err != nil {
		result.setStatus(StatusFailed)
		result.Logs = append(result.Logs, err.Error())
		result.FinishedAt = time.Now()
		return result
	}

	r.runWithRepeat(ctx, step, cmd, args, result)
	result.FinishedAt = time.Now()
	return result
}

// upstreamSkipReason implements spec.md §4.E point 2: a step whose
// depends_on contains any non-succeeded id is skipped with reason
// upstream_not_succeeded, unless its DependsOnPolicy is run_on_skipped.
func (r *Run) upstreamSkipReason(step *StepSpec) (string, bool) {
	if step.DependsOnPolicy == PolicyRunOnSkipped {
		return "", false
	}
	for _, dep := range step.DependsOn {
		result, ok := r.ctx.Steps[dep]
		if !ok || result.Status != StatusSucceeded {
			return "upstream_not_succeeded", true
		}
	}
	return "", false
}

// runWithRepeat implements spec.md §4.E point 3: repeat.until is a
// bounded retry, re-running the step up to N attempts while the until
// expression is false. Each attempt writes a fresh result into
// r.ctx.Steps[step.ID] before evaluating until, so the condition may
// reference this attempt's own steps.<id>.output. Built on
// cenkalti/backoff/v5's Retry, the same helper dispatch.RetryTransient
// uses, with a zero-delay constant backoff between attempts.
func (r *Run) runWithRepeat(ctx context.Context, step *StepSpec, cmd *registry.CommandSpec, args map[string]registry.JSONValue, result *StepResult) {
	maxAttempts := uint(1)
	until := ""
	if step.Repeat != nil {
		until = step.Repeat.Until
		if step.Repeat.MaxAttempts > 0 {
			maxAttempts = uint(step.Repeat.MaxAttempts)
		}
	}

	scope := newRunContextScope(r.ctx)
	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		output, runErr := r.runner.Run(ctx, cmd, args)
		if runErr != nil {
			if ctx.Err() == context.Canceled {
				result.setStatus(StatusCancelled)
				result.Logs = append(result.Logs, fmt.Sprintf("attempt %d: cancelled", attempt))
				return struct{}{}, backoff.Permanent(runErr)
			}
			result.Logs = append(result.Logs, fmt.Sprintf("attempt %d: %s", attempt, runErr.Error()))
			return struct{}{}, runErr
		}

		result.Output = output
		result.Logs = append(result.Logs, fmt.Sprintf("attempt %d: succeeded", attempt))
		r.ctx.Steps[step.ID] = result

		if until == "" {
			return struct{}{}, nil
		}
		satisfied, evalErr := template.EvalCondition(until, scope)
		if evalErr != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("attempt %d: until condition error: %s", attempt, evalErr.Error()))
			return struct{}{}, backoff.Permanent(evalErr)
		}
		if satisfied {
			return struct{}{}, nil
		}
		return struct{}{}, fmt.Errorf("until condition not yet satisfied")
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(0)),
		backoff.WithMaxTries(maxAttempts),
	)
	if result.Status == StatusCancelled {
		return
	}
	if err != nil {
		result.setStatus(StatusFailed)
		return
	}
	result.setStatus(StatusSucceeded)
}
