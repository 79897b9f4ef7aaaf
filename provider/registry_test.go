package provider

import (
	"context"
	"testing"

	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDispatcher struct {
	calls  int
	result registry.JSONValue
	err    error
}

func (s *stubDispatcher) Execute(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
	s.calls++
	return s.result, s.err
}

func TestFetchValues_Null(t *testing.T) {
	r := NewRegistry()
	r.Register("widgets list", &Provider{Kind: KindNull})

	values, err := r.FetchValues(context.Background(), "widgets list", nil)
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestFetchValues_CatalogBackedWrapsNonArray(t *testing.T) {
	stub := &stubDispatcher{result: map[string]any{"id": "1"}}
	r := NewRegistry()
	r.Register("widgets get", &Provider{
		Kind:       KindCatalogBacked,
		Command:    &registry.CommandSpec{Group: "widgets", Name: "get"},
		Dispatcher: stub,
	})

	values, err := r.FetchValues(context.Background(), "widgets get", map[string]registry.JSONValue{})
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, 1, stub.calls)
}

func TestFetchValues_CatalogBackedPassesThroughArray(t *testing.T) {
	stub := &stubDispatcher{result: []any{"a", "b", "c"}}
	r := NewRegistry()
	r.Register("widgets list", &Provider{
		Kind:       KindCatalogBacked,
		Command:    &registry.CommandSpec{Group: "widgets", Name: "list"},
		Dispatcher: stub,
	})

	values, err := r.FetchValues(context.Background(), "widgets list", nil)
	require.NoError(t, err)
	assert.Len(t, values, 3)
}

func TestFetchValues_MissingRequiredInputFails(t *testing.T) {
	r := NewRegistry()
	r.Register("widgets get", &Provider{
		Kind: KindCatalogBacked,
		Contract: registry.ProviderContract{
			ID:             "widgets get",
			RequiredInputs: []registry.RequiredInput{{Name: "id", Kind: registry.ValueKindString}},
		},
	})

	_, err := r.FetchValues(context.Background(), "widgets get", map[string]registry.JSONValue{})
	require.Error(t, err)
	var precondition *registry.ProviderPreconditionFailure
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, []string{"id"}, precondition.Missing)
}

func TestFetchValues_CacheableContractIsNotRefetched(t *testing.T) {
	stub := &stubDispatcher{result: []any{"x"}}
	r := NewRegistry()
	r.Register("widgets list", &Provider{
		Kind:       KindCatalogBacked,
		Contract:   registry.ProviderContract{ID: "widgets list", Cacheable: true},
		Command:    &registry.CommandSpec{Group: "widgets", Name: "list"},
		Dispatcher: stub,
	})
	r.BeginPass()

	_, err := r.FetchValues(context.Background(), "widgets list", nil)
	require.NoError(t, err)
	_, err = r.FetchValues(context.Background(), "widgets list", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)

	r.BeginPass()
	_, err = r.FetchValues(context.Background(), "widgets list", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
}
