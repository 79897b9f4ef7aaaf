package template

import (
	"testing"

	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapScope map[string]registry.JSONValue

func (m mapScope) Lookup(path string) (registry.JSONValue, bool) {
	v, ok := m[path]
	return v, ok
}

func TestInterpolate_FullExpressionReplacement(t *testing.T) {
	scope := mapScope{"inputs.count": 3.0, "inputs.items": []any{"a", "b"}}

	v, err := Interpolate("${{ inputs.count }}", scope)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = Interpolate("${{ inputs.items }}", scope)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestInterpolate_MixedLiteralAndExpression(t *testing.T) {
	scope := mapScope{"inputs.name": "world"}
	v, err := Interpolate("hello, ${{ inputs.name }}!", scope)
	require.NoError(t, err)
	assert.Equal(t, "hello, world!", v)
}

func TestInterpolate_MissingLookupIsEmptyStringInStringContext(t *testing.T) {
	scope := mapScope{}
	v, err := Interpolate("value=${{ inputs.missing }}", scope)
	require.NoError(t, err)
	assert.Equal(t, "value=", v)
}

func TestInterpolate_RecursesThroughArraysAndObjects(t *testing.T) {
	scope := mapScope{"inputs.id": "42"}
	tree := map[string]any{
		"path": "/things/${{ inputs.id }}",
		"tags": []any{"${{ inputs.id }}", "literal"},
	}
	v, err := Interpolate(tree, scope)
	require.NoError(t, err)
	out := v.(map[string]any)
	assert.Equal(t, "/things/42", out["path"])
	assert.Equal(t, []any{"42", "literal"}, out["tags"])
}

func TestEvalCondition_Equality(t *testing.T) {
	scope := mapScope{"steps.fetch.status": "succeeded"}
	ok, err := EvalCondition(`steps.fetch.status == "succeeded"`, scope)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvalCondition(`steps.fetch.status != "failed"`, scope)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalCondition_Includes(t *testing.T) {
	scope := mapScope{"inputs.roles": []any{"admin", "viewer"}}
	ok, err := EvalCondition(`inputs.roles.includes("admin")`, scope)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvalCondition(`inputs.roles.includes("owner")`, scope)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalCondition_LogicalOperators(t *testing.T) {
	scope := mapScope{"inputs.a": true, "inputs.b": false}
	ok, err := EvalCondition(`true && false || true`, scope)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalCondition_IncludesOnNonArrayIsKindError(t *testing.T) {
	scope := mapScope{"inputs.roles": "admin"}
	_, err := EvalCondition(`inputs.roles.includes("admin")`, scope)
	require.Error(t, err)
	var kindErr *KindError
	assert.ErrorAs(t, err, &kindErr)
}

func TestEvalCondition_MalformedExpressionIsSyntaxError(t *testing.T) {
	scope := mapScope{}
	_, err := EvalCondition(`== "x"`, scope)
	require.Error(t, err)
	var syntaxErr *SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}
