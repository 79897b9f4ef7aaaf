package codec

import (
	"testing"

	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHCLRoundTrip_PreservesRefKeys(t *testing.T) {
	m := sampleManifest()
	m.Workflows["provision"].Steps[0].With = map[string]any{
		"$ref": "#/components/schemas/Widget",
		"extra": map[string]any{
			"$id": "inner",
		},
	}

	data, err := ToHCL(m)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"$ref"`)

	decoded, err := FromHCL(data)
	require.NoError(t, err)
	with, ok := decoded.Workflows["provision"].Steps[0].With.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "#/components/schemas/Widget", with["$ref"])
	extra, ok := with["extra"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "inner", extra["$id"])
}

func TestHCLRoundTrip_LeavesOriginalManifestUntouched(t *testing.T) {
	m := sampleManifest()
	m.Workflows["provision"].Steps[0].With = map[string]any{"$ref": "#/components/schemas/Widget"}

	_, err := ToHCL(m)
	require.NoError(t, err)

	with, ok := m.Workflows["provision"].Steps[0].With.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "#/components/schemas/Widget", with["$ref"], "ToHCL must not mutate the caller's manifest in place")
}

func TestHCLRoundTrip_Commands(t *testing.T) {
	m := sampleManifest()
	data, err := ToHCL(m)
	require.NoError(t, err)

	decoded, err := FromHCL(data)
	require.NoError(t, err)
	require.Len(t, decoded.Commands, 1)
	assert.Equal(t, registry.ExecutionHTTP, decoded.Commands[0].Execution.Kind)
	require.NotNil(t, decoded.Commands[0].Execution.Http)
	assert.Equal(t, registry.MethodGet, decoded.Commands[0].Execution.Http.Method)
}
