package workflow

import (
	"testing"

	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBundleJSON = `{
  "workflows": {
    "deploy": {
      "workflow": "deploy",
      "inputs": {
        "region": {"valueKind": "string", "required": true}
      },
      "steps": [
        {"id": "fetch", "run": "widgets list"},
        {"id": "create", "run": "widgets create", "dependsOn": ["fetch"]}
      ]
    }
  }
}`

func TestParseBundle_JSON(t *testing.T) {
	bundle, err := ParseBundle([]byte(validBundleJSON))
	require.NoError(t, err)
	require.Contains(t, bundle, "deploy")
	spec := bundle["deploy"]
	assert.Equal(t, "deploy", spec.Workflow)
	require.Len(t, spec.Steps, 2)
	assert.Equal(t, "fetch", spec.Steps[0].ID)
	assert.Equal(t, []string{"fetch"}, spec.Steps[1].DependsOn)
}

const validBundleYAML = `
workflows:
  deploy:
    workflow: deploy
    steps:
      - id: fetch
        run: widgets list
`

func TestParseBundle_YAML(t *testing.T) {
	bundle, err := ParseBundle([]byte(validBundleYAML))
	require.NoError(t, err)
	require.Contains(t, bundle, "deploy")
	assert.Len(t, bundle["deploy"].Steps, 1)
}

const validSingleWorkflowJSON = `{
  "workflow": "deploy",
  "inputs": {
    "region": {"valueKind": "string", "required": true}
  },
  "steps": [
    {"id": "fetch", "run": "widgets list"}
  ]
}`

func TestParseBundle_SingleWorkflowShape(t *testing.T) {
	bundle, err := ParseBundle([]byte(validSingleWorkflowJSON))
	require.NoError(t, err)
	require.Contains(t, bundle, "deploy")
	assert.Equal(t, "deploy", bundle["deploy"].Workflow)
	require.Len(t, bundle["deploy"].Steps, 1)
	assert.Equal(t, "fetch", bundle["deploy"].Steps[0].ID)
}

func TestParseBundle_RejectsNeitherWorkflowNorWorkflowsKey(t *testing.T) {
	_, err := ParseBundle([]byte(`{"deploy": {"workflow": "deploy", "steps": []}}`))
	require.Error(t, err)
	var perr *registry.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseBundle_RejectsBothWorkflowAndWorkflowsKey(t *testing.T) {
	data := `{
  "workflow": "deploy",
  "workflows": {"other": {"workflow": "other", "steps": []}},
  "steps": []
}`
	_, err := ParseBundle([]byte(data))
	require.Error(t, err)
	var perr *registry.ParseError
	require.ErrorAs(t, err, &perr)
}

const legacyBundleJSON = `{
  "workflows": {
    "deploy": {
      "workflow": "deploy",
      "tasks": [
        {"id": "fetch", "run": "widgets list"}
      ]
    }
  }
}`

func TestParseBundle_RejectsLegacyTasksByDefault(t *testing.T) {
	_, err := ParseBundle([]byte(legacyBundleJSON))
	require.Error(t, err)
	var verr *registry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, registry.KindLegacyTasksShape, verr.Kind)
}

const legacyBundleWithMarkerJSON = `{
  "x-oatty-legacy": true,
  "workflows": {
    "deploy": {
      "workflow": "deploy",
      "tasks": [
        {"id": "fetch", "run": "widgets list"}
      ]
    }
  }
}`

func TestParseBundle_AllowsLegacyTasksWithMarker(t *testing.T) {
	bundle, err := ParseBundle([]byte(legacyBundleWithMarkerJSON))
	require.NoError(t, err)
	require.Len(t, bundle["deploy"].Steps, 1)
	assert.Equal(t, "fetch", bundle["deploy"].Steps[0].ID)
}

func TestParseBundle_RejectsCycle(t *testing.T) {
	data := `{
  "workflows": {
    "deploy": {
      "workflow": "deploy",
      "steps": [
        {"id": "a", "run": "widgets get", "dependsOn": ["b"]},
        {"id": "b", "run": "widgets get", "dependsOn": ["a"]}
      ]
    }
  }
}`
	_, err := ParseBundle([]byte(data))
	require.Error(t, err)
	var verr *registry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, registry.KindCycleDetected, verr.Kind)
}
