package operations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationStateLifecycle(t *testing.T) {
	state := NewOperationState("op")
	state.SetStage("a", NewStepState("a", "A"))
	state.SetStage("b", NewStepState("b", "B"))

	assert.ElementsMatch(t, []string{"a", "b"}, state.StepsWithStatus(StepStatusPending))
	state.Start()
	assert.Equal(t, OperationStatusRunning, state.Status)

	state.GetStage("a").Start()
	assert.Equal(t, []string{"a"}, state.StepsWithStatus(StepStatusActive))

	state.GetStage("a").Complete()
	state.GetStage("b").Fail(errors.New("boom"))
	assert.Equal(t, []string{"a"}, state.StepsWithStatus(StepStatusCompleted))
	assert.Equal(t, []string{"b"}, state.StepsWithStatus(StepStatusFailed))
	assert.Empty(t, state.StepsWithStatus(StepStatusPending))

	state.AddWarning("consolidation failed")
	clone := state.Clone()
	state.AddWarning("later")
	assert.Equal(t, []string{"consolidation failed"}, clone.Warnings)
	assert.Equal(t, []string{"consolidation failed", "later"}, state.GetWarnings())
	assert.NotSame(t, state.GetStage("a"), clone.Steps["a"])
	assert.Equal(t, 1, clone.Steps["a"].Attempts)

	state.Cancel()
	assert.Equal(t, OperationStatusCancelled, state.Status)
	assert.NotNil(t, state.EndTime)
}

func TestStepStateTransitions(t *testing.T) {
	s := NewStepState("a", "A")
	assert.Equal(t, StepStatusPending, s.GetStatus())
	assert.Zero(t, s.Duration())

	s.Start()
	s.Fail(errors.New("first"))
	s.Start()
	s.Complete()

	assert.Equal(t, StepStatusCompleted, s.GetStatus())
	assert.Equal(t, 2, s.Attempts)
	assert.Nil(t, s.Error)

	s.Skip("dependency failed")
	assert.Equal(t, "dependency failed", s.Message)
}

func TestOperationStateParameters(t *testing.T) {
	state := NewOperationState("op")
	params := map[string]interface{}{"input_dir": "/data/weekly", "retries": 3}
	state.setParameters(params)
	params["input_dir"] = "changed"

	assert.Equal(t, "/data/weekly", state.Parameter("input_dir"))
	assert.Equal(t, "", state.Parameter("retries"), "non-string values read as empty")
	assert.Equal(t, "", state.Parameter("missing"))

	clone := state.Clone()
	state.setParameters(map[string]interface{}{"input_dir": "other"})
	assert.Equal(t, "/data/weekly", clone.Parameter("input_dir"))
}
