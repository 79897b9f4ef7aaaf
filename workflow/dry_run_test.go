package workflow

import (
	"testing"

	"github.com/oattyio/oatty/dispatch"
	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlanner struct{}

func (stubPlanner) Plan(cmd *registry.CommandSpec, args map[string]registry.JSONValue) (*dispatch.Plan, error) {
	return &dispatch.Plan{
		Method:  "GET",
		URL:     "https://api.example.com/widgets",
		Headers: map[string]string{},
		Body:    nil,
	}, nil
}

func testCatalog(t *testing.T) *registry.Catalog {
	t.Helper()
	cat, err := registry.NewCatalog([]*registry.CommandSpec{
		{
			Group: "widgets",
			Name:  "list",
			Execution: registry.CommandExecution{
				Kind: registry.ExecutionHTTP,
				Http: &registry.HttpCommandSpec{Method: registry.MethodGet, Path: "/widgets", BaseURL: "https://api.example.com"},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

func TestDryRunPlan_BuildsEntryForEachStep(t *testing.T) {
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{ID: "fetch", Run: "widgets list"},
	}}
	run := NewRunContext(nil)

	entries, err := DryRunPlan(spec, run, testCatalog(t), stubPlanner{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "GET", entries[0].Method)
	assert.Equal(t, "https://api.example.com/widgets", entries[0].URL)
	assert.Empty(t, entries[0].SkippedBecause)
}

func TestDryRunPlan_SkipsFalseCondition(t *testing.T) {
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{ID: "fetch", Run: "widgets list", If: `inputs.enabled == true`},
	}}
	run := NewRunContext(nil)
	run.Inputs["enabled"] = false

	entries, err := DryRunPlan(spec, run, testCatalog(t), stubPlanner{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "condition_false", entries[0].SkippedBecause)
	assert.Empty(t, entries[0].URL)
}

func TestDryRunPlan_RejectsUnknownCommand(t *testing.T) {
	spec := &WorkflowSpec{Steps: []*StepSpec{
		{ID: "fetch", Run: "widgets nonexistent"},
	}}
	run := NewRunContext(nil)

	_, err := DryRunPlan(spec, run, testCatalog(t), stubPlanner{})
	require.Error(t, err)
	var notFound *registry.CommandNotFoundError
	require.ErrorAs(t, err, &notFound)
}
