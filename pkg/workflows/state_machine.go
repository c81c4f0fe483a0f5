package workflows

import "fmt"

// StateMachine enforces transitions from an allowed-transition table
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a new state machine with allowed transitions.
// The table is copied; later changes to transitions have no effect.
func NewStateMachine(transitions map[string][]string) *StateMachine {
	allowed := make(map[string][]string, len(transitions))
	for from, to := range transitions {
		allowed[from] = append([]string(nil), to...)
	}
	return &StateMachine{allowedTransitions: allowed}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// Transition returns an error when from -> to is not allowed
func (sm *StateMachine) Transition(from, to string) error {
	if !sm.CanTransition(from, to) {
		return fmt.Errorf("transition from %s to %s is not allowed", from, to)
	}
	return nil
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}
