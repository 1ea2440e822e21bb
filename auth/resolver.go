package auth

import (
	"context"
	"fmt"

	"github.com/wansing/editorial/core"
)

// A Resolver computes assignment types from role memberships and adhoc assignments.
// It implements core.AssignmentResolver.
type Resolver struct {
	Store   *core.WorkflowStore
	Content core.ContentDB
	Adhoc   core.AdhocDB // optional
}

// AssignmentTypes returns one assignment type per content id. Items which can't be found get core.AssignNone.
func (r *Resolver) AssignmentTypes(ctx context.Context, contentIDs []int, userName string, userRoles []string) ([]core.AssignmentType, error) {

	var result = make([]core.AssignmentType, len(contentIDs))

	for i, contentID := range contentIDs {

		result[i] = core.AssignNone

		status, err := r.Content.GetStatus(ctx, contentID)
		if core.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting status of content %d: %w", contentID, err)
		}

		workflow, err := r.Store.LoadCached(ctx, status.WorkflowID)
		if core.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		state := workflow.State(status.StateID)
		if state == nil {
			continue
		}

		var adhocUsers []core.ContentAdhocUser
		if r.Adhoc != nil && state.AdhocEnabled {
			adhocUsers, err = r.Adhoc.FindAdhocUsers(ctx, contentID)
			if err != nil {
				return nil, fmt.Errorf("getting adhoc users of content %d: %w", contentID, err)
			}
		}

		result[i] = Resolve(workflow, state, userName, userRoles, adhocUsers)
	}

	return result, nil
}

// Resolve computes the assignment type of a user in a state.
func Resolve(workflow *core.Workflow, state *core.State, userName string, userRoles []string, adhocUsers []core.ContentAdhocUser) core.AssignmentType {

	var result = core.AssignNone

	for _, roleID := range workflow.RoleIDs(userRoles) {
		sr, ok := state.Role(roleID)
		if !ok {
			continue
		}
		var assignment = sr.Assignment
		if sr.Adhoc && state.AdhocEnabled {
			assignment = min(assignment, core.AssignReader) // membership alone is not enough
		}
		result = max(result, assignment)
	}

	if !state.AdhocEnabled {
		return result
	}

	userName = core.CleanUserName(userName)

	for _, adhoc := range adhocUsers {
		if core.CleanUserName(adhoc.UserName) != userName {
			continue
		}
		sr, ok := state.Role(adhoc.RoleID)
		if !ok || !sr.Adhoc {
			continue
		}
		result = max(result, sr.Assignment, core.AssignAssignee)
	}

	return result
}
