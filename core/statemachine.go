package core

import (
	"context"
	"fmt"
)

// A StateMachine answers questions about the states and transitions of cached workflows.
type StateMachine struct {
	store *WorkflowStore
}

func NewStateMachine(store *WorkflowStore) *StateMachine {
	return &StateMachine{store: store}
}

// IsPublic returns whether content in the given state is published.
// It returns a *NotFoundError if the workflow or the state does not exist.
func (m *StateMachine) IsPublic(ctx context.Context, workflowID, stateID int) (bool, error) {
	state, err := m.store.LoadState(ctx, workflowID, stateID)
	if err != nil {
		return false, err
	}
	return state.Publishable, nil
}

// TransitionsFrom returns the outgoing transitions of a state, in their authored order.
func TransitionsFrom(s *State) []*Transition {
	if s == nil {
		return nil
	}
	return s.Transitions
}

// TargetState returns the state which a transition leads to.
func TargetState(w *Workflow, t *Transition) (*State, error) {
	target := w.State(t.TargetStateID)
	if target == nil {
		return nil, NewNotFoundError(KindState, fmt.Sprintf("%d/%d", w.ID, t.TargetStateID))
	}
	return target, nil
}

// CanActInRole returns whether a user with the given workflow roles may use a transition.
//
// Transitions which are open to all roles can always be used. Otherwise the user needs an allowed role
// which has not voted yet in the transition's state. Approvals from other states are ignored.
func CanActInRole(t *Transition, userRoleIDs []int, priorApprovals []ContentApproval) bool {

	if t.AllowAllRoles {
		return true
	}

	var eligible = make(map[int]struct{})
	for _, tr := range t.Roles {
		if !tr.Allowed {
			continue
		}
		for _, roleID := range userRoleIDs {
			if roleID == tr.RoleID {
				eligible[roleID] = struct{}{}
			}
		}
	}

	if len(eligible) == 0 {
		return false
	}

	for _, a := range priorApprovals {
		if a.StateID == t.StateID {
			delete(eligible, a.RoleID)
		}
	}

	return len(eligible) > 0
}
