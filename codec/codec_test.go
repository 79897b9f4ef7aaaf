package codec

import (
	"testing"

	"github.com/oattyio/oatty/registry"
	"github.com/oattyio/oatty/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	return &Manifest{
		Commands: []*registry.CommandSpec{
			{
				Group: "widgets",
				Name:  "list",
				Execution: registry.CommandExecution{
					Kind: registry.ExecutionHTTP,
					Http: &registry.HttpCommandSpec{Method: registry.MethodGet, Path: "/widgets", BaseURL: "https://api.example.com"},
				},
			},
		},
		Workflows: map[string]*workflow.WorkflowSpec{
			"provision": {
				Workflow: "provision",
				Inputs: map[string]workflow.InputSpec{
					"region": {ValueKind: registry.ValueKindString, Default: "us-east-1"},
					"zone":   {ValueKind: registry.ValueKindString, Default: "a"},
					"size":   {ValueKind: registry.ValueKindNumber, Default: float64(1)},
				},
				Steps: []*workflow.StepSpec{
					{ID: "fetch", Run: "widgets list"},
				},
			},
			"teardown": {
				Workflow: "teardown",
				Steps: []*workflow.StepSpec{
					{ID: "remove", Run: "widgets list"},
				},
			},
		},
	}
}

// TestEncodeBinary_Deterministic guards the canonical CBOR encode mode
// (codec.go's canonicalEncMode): Manifest.Workflows and WorkflowSpec.Inputs
// are Go maps, whose iteration order is randomized per process, so encoding
// the same manifest repeatedly must still produce byte-identical output
// (spec.md §4.G "stable field order", §8 round-trip invariant).
func TestEncodeBinary_Deterministic(t *testing.T) {
	m := sampleManifest()
	first, err := EncodeBinary(m)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := EncodeBinary(m)
		require.NoError(t, err)
		require.Equal(t, first, again, "encode attempt %d diverged", i)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	m := sampleManifest()
	data, err := EncodeBinary(m)
	require.NoError(t, err)
	require.Equal(t, []byte("OATY"), data[:4])
	assert.Equal(t, schemaVersion, data[4])

	decoded, err := DecodeBinary(data)
	require.NoError(t, err)
	require.Len(t, decoded.Commands, 1)
	assert.Equal(t, "widgets", decoded.Commands[0].Group)
	require.Contains(t, decoded.Workflows, "provision")
	assert.Equal(t, "us-east-1", decoded.Workflows["provision"].Inputs["region"].Default)
}

func TestDecodeBinary_RejectsBadMagic(t *testing.T) {
	_, err := DecodeBinary([]byte("XXXX\x01garbage"))
	require.Error(t, err)
	var parseErr *registry.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestDecodeBinary_RejectsUnknownVersion(t *testing.T) {
	m := sampleManifest()
	data, err := EncodeBinary(m)
	require.NoError(t, err)
	data[4] = 9

	_, err = DecodeBinary(data)
	require.Error(t, err)
	var parseErr *registry.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestDecodeBinary_RejectsTruncated(t *testing.T) {
	_, err := DecodeBinary([]byte("OA"))
	require.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	m := sampleManifest()
	data, err := EncodeJSON(m)
	require.NoError(t, err)

	decoded, err := DecodeJSON(data)
	require.NoError(t, err)
	require.Len(t, decoded.Commands, 1)
	assert.Equal(t, "list", decoded.Commands[0].Name)
}
