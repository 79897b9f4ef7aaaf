package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	runFn func(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error)
}

func (s *stubRunner) Run(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
	return s.runFn(ctx, cmd, args)
}

func TestRun_LinearSuccess(t *testing.T) {
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{ID: "fetch", Run: "widgets list"},
		{ID: "create", Run: "widgets list", DependsOn: []string{"fetch"}},
	}}
	run := NewRunContext(nil)
	runner := &stubRunner{runFn: func(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
		return "ok", nil
	}}

	r, err := NewRun(spec, run, testCatalog(t), runner, nil, nil, logr.Discard())
	require.NoError(t, err)

	status, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, status)
	assert.Equal(t, StatusSucceeded, run.Steps["fetch"].Status)
	assert.Equal(t, StatusSucceeded, run.Steps["create"].Status)
}

func TestRun_FailedStepSkipsDownstream(t *testing.T) {
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{ID: "fetch", Run: "widgets list"},
		{ID: "create", Run: "widgets list", DependsOn: []string{"fetch"}},
	}}
	run := NewRunContext(nil)
	runner := &stubRunner{runFn: func(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
		return nil, errors.New("boom")
	}}

	r, err := NewRun(spec, run, testCatalog(t), runner, nil, nil, logr.Discard())
	require.NoError(t, err)

	status, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, StatusFailed, run.Steps["fetch"].Status)
	require.NotNil(t, run.Steps["create"])
	assert.Equal(t, StatusSkipped, run.Steps["create"].Status)
	assert.Equal(t, "upstream_not_succeeded", run.Steps["create"].SkippedBecause)
}

func TestRun_UpstreamNotSucceededSkipsStep(t *testing.T) {
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{ID: "fetch", Run: "widgets list", If: "inputs.enabled == true"},
		{ID: "create", Run: "widgets list", DependsOn: []string{"fetch"}},
	}}
	run := NewRunContext(nil)
	run.Inputs["enabled"] = false
	runner := &stubRunner{runFn: func(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
		return "ok", nil
	}}

	r, err := NewRun(spec, run, testCatalog(t), runner, nil, nil, logr.Discard())
	require.NoError(t, err)

	status, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, status)
	assert.Equal(t, StatusSkipped, run.Steps["fetch"].Status)
	assert.Equal(t, StatusSkipped, run.Steps["create"].Status)
	assert.Equal(t, "upstream_not_succeeded", run.Steps["create"].SkippedBecause)
}

func TestRun_PauseAndResume(t *testing.T) {
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{ID: "fetch", Run: "widgets list"},
		{ID: "create", Run: "widgets list", DependsOn: []string{"fetch"}},
	}}
	run := NewRunContext(nil)
	runner := &stubRunner{runFn: func(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
		return "ok", nil
	}}

	r, err := NewRun(spec, run, testCatalog(t), runner, nil, nil, logr.Discard())
	require.NoError(t, err)

	r.Pause()
	status, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, status)
	assert.Nil(t, run.Steps["fetch"])

	require.NoError(t, r.Resume())
	status, err = r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, status)
}

func TestRun_Cancel(t *testing.T) {
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{ID: "fetch", Run: "widgets list"},
		{ID: "create", Run: "widgets list", DependsOn: []string{"fetch"}},
	}}
	run := NewRunContext(nil)
	runner := &stubRunner{runFn: func(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
		return "ok", nil
	}}

	r, err := NewRun(spec, run, testCatalog(t), runner, nil, nil, logr.Discard())
	require.NoError(t, err)
	r.Cancel()

	status, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status)
	require.NoError(t, r.Done())
}

func TestRun_RepeatUntilSucceedsOnSecondAttempt(t *testing.T) {
	attempts := 0
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{
			ID:     "poll",
			Run:    "widgets list",
			Repeat: &RepeatSpec{Until: "steps.poll.output == true", MaxAttempts: 3},
		},
	}}
	run := NewRunContext(nil)
	runner := &stubRunner{runFn: func(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
		attempts++
		return attempts >= 2, nil
	}}

	r, err := NewRun(spec, run, testCatalog(t), runner, nil, nil, logr.Discard())
	require.NoError(t, err)

	status, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, status)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, StatusSucceeded, run.Steps["poll"].Status)
}
