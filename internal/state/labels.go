package state

import "context"

// LabelSource exposes the stored dialog states as plain labels for
// metrics collection.
type LabelSource struct {
	fsm StateMachine
}

// NewLabelSource wraps a state machine.
func NewLabelSource(fsm StateMachine) *LabelSource {
	return &LabelSource{fsm: fsm}
}

// StateLabels returns one entry per stored user state.
func (s *LabelSource) StateLabels(ctx context.Context) ([]string, error) {
	if s == nil || s.fsm == nil {
		return nil, nil
	}

	states, err := s.fsm.GetAllStates(ctx)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(states))
	for _, userState := range states {
		if userState == nil {
			continue
		}
		labels = append(labels, string(userState.CurrentState))
	}

	return labels, nil
}
