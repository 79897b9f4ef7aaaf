package workflow

import (
	"testing"

	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepAt(id string, order int, dependsOn ...string) *StepSpec {
	return &StepSpec{ID: id, Run: "widgets get", DependsOn: dependsOn, sourceOrder: order}
}

func TestTopoOrder_RespectsDependencies(t *testing.T) {
	steps := []*StepSpec{
		stepAt("c", 2, "a", "b"),
		stepAt("a", 0),
		stepAt("b", 1),
	}
	ordered, err := topoOrder(steps)
	require.NoError(t, err)

	ids := make([]string, len(ordered))
	for i, s := range ordered {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestTopoOrder_TiesBreakBySourceOrder(t *testing.T) {
	steps := []*StepSpec{
		stepAt("z", 1),
		stepAt("a", 0),
	}
	ordered, err := topoOrder(steps)
	require.NoError(t, err)
	assert.Equal(t, "a", ordered[0].ID)
	assert.Equal(t, "z", ordered[1].ID)
}

func TestTopoOrder_DetectsCycle(t *testing.T) {
	steps := []*StepSpec{
		stepAt("a", 0, "b"),
		stepAt("b", 1, "a"),
	}
	_, err := topoOrder(steps)
	require.Error(t, err)
	var verr *registry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, registry.KindCycleDetected, verr.Kind)
}

func TestTopoOrder_RejectsUnknownDependsOn(t *testing.T) {
	steps := []*StepSpec{
		stepAt("a", 0, "missing"),
	}
	_, err := topoOrder(steps)
	require.Error(t, err)
	var verr *registry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, registry.KindUnknownDependsOn, verr.Kind)
}

func TestTopoOrder_RejectsDuplicateStepID(t *testing.T) {
	steps := []*StepSpec{
		stepAt("a", 0),
		stepAt("a", 1),
	}
	_, err := topoOrder(steps)
	require.Error(t, err)
	var verr *registry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, registry.KindDuplicateStepID, verr.Kind)
}
