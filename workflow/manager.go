package workflow

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/oattyio/oatty/provider"
	"github.com/oattyio/oatty/registry"
)

// Manager bounds the number of Runs that may be in their Execute call at
// once (spec.md §5 "Backpressure": concurrent run count is bounded by a
// configurable limit; additional runs queue and transition from pending to
// running as slots open). It owns no run state itself beyond the counting
// semaphore; each Run remains exclusively owned by whichever goroutine
// calls Submit for it, matching Run's own single-owner Execute contract.
type Manager struct {
	slots chan struct{}
}

// NewManager returns a Manager that allows at most limit concurrent
// Execute calls. limit <= 0 is treated as 1, since an unbounded manager is
// just the caller invoking Run.Execute directly and needs no Manager at
// all.
func NewManager(limit int) *Manager {
	if limit <= 0 {
		limit = 1
	}
	return &Manager{slots: make(chan struct{}, limit)}
}

// Submit acquires a slot (blocking in StatusPending if none is free),
// drives run to completion via Execute, and releases the slot. It returns
// ctx's error without acquiring a slot if ctx is already done, so a
// cancelled caller never occupies a queue position.
func (m *Manager) Submit(ctx context.Context, run *Run) (Status, error) {
	if err := ctx.Err(); err != nil {
		return StatusPending, err
	}
	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		return StatusPending, ctx.Err()
	}
	defer func() { <-m.slots }()

	return run.Execute(ctx)
}

// NewRun is a convenience that constructs a Run the same way NewRun does
// and immediately Submits it through m, so a caller that only ever wants
// bounded concurrency doesn't need to hold both a Manager and the package
// function of the same name.
func (m *Manager) NewRun(ctx context.Context, spec *WorkflowSpec, runCtx *RunContext, catalog *registry.Catalog, runner Runner, providers *provider.Registry, selector Selector, log logr.Logger) (Status, error) {
	run, err := NewRun(spec, runCtx, catalog, runner, providers, selector, log)
	if err != nil {
		return StatusPending, err
	}
	return m.Submit(ctx, run)
}
