package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		"idle":     {"fetching"},
		"fetching": {"ready", "failed"},
		"ready":    {"idle"},
		"failed":   {"idle"},
	})
}

func TestStateMachine_CanTransition(t *testing.T) {
	sm := testMachine()

	tests := []struct {
		from, to string
		want     bool
	}{
		{"idle", "fetching", true},
		{"fetching", "ready", true},
		{"fetching", "failed", true},
		{"idle", "ready", false},
		{"ready", "fetching", false},
		{"unknown", "idle", false},
		{"idle", "idle", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, sm.CanTransition(tt.from, tt.to))
		})
	}
}

func TestStateMachine_Transition(t *testing.T) {
	sm := testMachine()

	require.NoError(t, sm.Transition("idle", "fetching"))

	err := sm.Transition("ready", "failed")
	require.Error(t, err)
	assert.Equal(t, "transition from ready to failed is not allowed", err.Error())
}

func TestStateMachine_GetAllowedTransitions(t *testing.T) {
	sm := testMachine()

	assert.Equal(t, []string{"ready", "failed"}, sm.GetAllowedTransitions("fetching"))
	assert.Empty(t, sm.GetAllowedTransitions("unknown"))

	allowed := sm.GetAllowedTransitions("idle")
	allowed[0] = "ready"
	assert.False(t, sm.CanTransition("idle", "ready"))
}

func TestNewStateMachine_CopiesTable(t *testing.T) {
	table := map[string][]string{"idle": {"fetching"}}
	sm := NewStateMachine(table)

	table["idle"][0] = "ready"
	table["ready"] = []string{"idle"}

	assert.True(t, sm.CanTransition("idle", "fetching"))
	assert.False(t, sm.CanTransition("idle", "ready"))
	assert.False(t, sm.CanTransition("ready", "idle"))
}
