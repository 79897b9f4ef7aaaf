package workflow

import (
	"context"
	"testing"

	"github.com/oattyio/oatty/provider"
	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProviderDispatcher struct {
	result registry.JSONValue
}

func (s *stubProviderDispatcher) Execute(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
	return s.result, nil
}

func TestResolveInputs_KeepsAlreadyPresentValue(t *testing.T) {
	spec := &WorkflowSpec{Inputs: map[string]InputSpec{
		"region": {ValueKind: registry.ValueKindString, Required: true},
	}}
	run := NewRunContext(nil)
	run.Inputs["region"] = "us-east-1"

	err := ResolveInputs(context.Background(), spec, run, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", run.Inputs["region"])
}

func TestResolveInputs_UsesDefaultWhenAbsent(t *testing.T) {
	spec := &WorkflowSpec{Inputs: map[string]InputSpec{
		"region": {ValueKind: registry.ValueKindString, Default: "us-west-2"},
	}}
	run := NewRunContext(nil)

	err := ResolveInputs(context.Background(), spec, run, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", run.Inputs["region"])
}

func TestResolveInputs_FailsMissingRequired(t *testing.T) {
	spec := &WorkflowSpec{Inputs: map[string]InputSpec{
		"region": {ValueKind: registry.ValueKindString, Required: true},
	}}
	run := NewRunContext(nil)

	err := ResolveInputs(context.Background(), spec, run, nil, nil)
	require.Error(t, err)
	var missing *registry.InputMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "region", missing.Name)
}

func TestResolveInputs_ProviderSingleValue(t *testing.T) {
	providers := provider.NewRegistry()
	providers.Register("widgets list", &provider.Provider{
		Kind:       provider.KindCatalogBacked,
		Command:    &registry.CommandSpec{Group: "widgets", Name: "list"},
		Dispatcher: &stubProviderDispatcher{result: []any{"widget-1"}},
	})

	spec := &WorkflowSpec{Inputs: map[string]InputSpec{
		"widget": {ValueKind: registry.ValueKindString, Provider: &registry.ValueProvider{ProviderID: "widgets list"}},
	}}
	run := NewRunContext(nil)

	err := ResolveInputs(context.Background(), spec, run, providers, nil)
	require.NoError(t, err)
	assert.Equal(t, "widget-1", run.Inputs["widget"])
}

func TestResolveInputs_ProviderMultipleValuesRequiresSelectorOrAutoSelect(t *testing.T) {
	providers := provider.NewRegistry()
	providers.Register("widgets list", &provider.Provider{
		Kind:       provider.KindCatalogBacked,
		Command:    &registry.CommandSpec{Group: "widgets", Name: "list"},
		Dispatcher: &stubProviderDispatcher{result: []any{"widget-1", "widget-2"}},
	})
	spec := &WorkflowSpec{Inputs: map[string]InputSpec{
		"widget": {ValueKind: registry.ValueKindString, Provider: &registry.ValueProvider{ProviderID: "widgets list"}},
	}}

	run := NewRunContext(nil)
	err := ResolveInputs(context.Background(), spec, run, providers, nil)
	require.Error(t, err)
	var unresolved *registry.InputUnresolvedError
	require.ErrorAs(t, err, &unresolved)

	spec.Inputs["widget"] = InputSpec{
		ValueKind:       registry.ValueKindString,
		Provider:        &registry.ValueProvider{ProviderID: "widgets list"},
		AutoSelectFirst: true,
	}
	run = NewRunContext(nil)
	err = ResolveInputs(context.Background(), spec, run, providers, nil)
	require.NoError(t, err)
	assert.Equal(t, "widget-1", run.Inputs["widget"])

	run = NewRunContext(nil)
	spec.Inputs["widget"] = InputSpec{
		ValueKind: registry.ValueKindString,
		Provider:  &registry.ValueProvider{ProviderID: "widgets list"},
	}
	selected := ""
	selector := func(ctx context.Context, name string, candidates []registry.JSONValue) (registry.JSONValue, error) {
		selected = name
		return candidates[1], nil
	}
	err = ResolveInputs(context.Background(), spec, run, providers, selector)
	require.NoError(t, err)
	assert.Equal(t, "widget", selected)
	assert.Equal(t, "widget-2", run.Inputs["widget"])
}

func TestResolveInputs_RejectsWrongKindForAlreadyPresentValue(t *testing.T) {
	spec := &WorkflowSpec{Inputs: map[string]InputSpec{
		"count": {ValueKind: registry.ValueKindNumber},
	}}
	run := NewRunContext(nil)
	run.Inputs["count"] = "not-a-number"

	err := ResolveInputs(context.Background(), spec, run, nil, nil)
	require.Error(t, err)
	var mismatch *registry.InputTypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}
