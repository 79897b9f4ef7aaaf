package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunContextScope_LookupEnvAndInputs(t *testing.T) {
	ctx := NewRunContext(map[string]string{"TOKEN": "secret"})
	ctx.Inputs["region"] = "us-east-1"
	ctx.Inputs["user"] = map[string]any{"name": "ada", "roles": []any{"admin", "ops"}}

	scope := newRunContextScope(ctx)

	v, ok := scope.Lookup("env.TOKEN")
	assert.True(t, ok)
	assert.Equal(t, "secret", v)

	v, ok = scope.Lookup("inputs.region")
	assert.True(t, ok)
	assert.Equal(t, "us-east-1", v)

	v, ok = scope.Lookup("inputs.user.name")
	assert.True(t, ok)
	assert.Equal(t, "ada", v)

	v, ok = scope.Lookup("inputs.user.roles[1]")
	assert.True(t, ok)
	assert.Equal(t, "ops", v)

	_, ok = scope.Lookup("env.MISSING")
	assert.False(t, ok)
}

func TestRunContextScope_LookupSteps(t *testing.T) {
	ctx := NewRunContext(nil)
	ctx.Steps["fetch"] = &StepResult{
		ID:     "fetch",
		Status: StatusSucceeded,
		Output: map[string]any{"items": []any{map[string]any{"id": "w1"}}},
	}
	scope := newRunContextScope(ctx)

	v, ok := scope.Lookup("steps.fetch.status")
	assert.True(t, ok)
	assert.Equal(t, "succeeded", v)

	v, ok = scope.Lookup("steps.fetch.output.items[0].id")
	assert.True(t, ok)
	assert.Equal(t, "w1", v)

	_, ok = scope.Lookup("steps.unknown.status")
	assert.False(t, ok)
}
