package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// CoreDB bundles the stores and the engine. Set the embedded databases, then call Init.
type CoreDB struct {
	AdhocDB
	ApprovalDB
	ContentDB
	RoleDB
	UserDB
	WorkflowDB

	Translator Translator
	Logger     *slog.Logger

	Calculator *Calculator
	Ledger     *ApprovalLedger
	Machine    *StateMachine
	Store      *WorkflowStore
}

// Init creates the engine. resolver may be nil, then Calculator.ActionsFor fails.
func (c *CoreDB) Init(resolver AssignmentResolver) error {

	if c.WorkflowDB == nil || c.ApprovalDB == nil || c.ContentDB == nil {
		return errors.New("workflow, approval and content databases are required")
	}

	if c.Translator == nil {
		c.Translator = NoTranslation{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	c.Store = NewWorkflowStore(c.WorkflowDB)
	c.Ledger = NewApprovalLedger(c.ApprovalDB)
	c.Machine = NewStateMachine(c.Store)
	c.Calculator = &Calculator{
		Store:      c.Store,
		Ledger:     c.Ledger,
		Content:    c.ContentDB,
		Resolver:   resolver,
		Translator: c.Translator,
		Logger:     c.Logger,
	}
	return nil
}

// Vote records that a user has voted for a transition of an item, if the transition is currently offered to the user.
// It does not execute the transition.
func (c *CoreDB) Vote(ctx context.Context, contentID int, transitionID int, userName string, userRoles []string) error {

	if c.Calculator.Resolver == nil {
		return errors.New("no assignment resolver configured")
	}

	assignments, err := c.Calculator.Resolver.AssignmentTypes(ctx, []int{contentID}, userName, userRoles)
	if err != nil {
		return err
	}

	req := Request{
		ContentIDs:      []int{contentID},
		AssignmentTypes: assignments,
		UserName:        userName,
		UserRoles:       userRoles,
	}

	offered, err := c.Calculator.TransitionActions(ctx, req)
	if err != nil {
		return err
	}

	var found bool
	for _, a := range offered {
		if a.TransitionID == transitionID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("transition %d is not available for %s on content %d: %w", transitionID, userName, contentID, ErrValidation)
	}

	status, err := c.ContentDB.GetStatus(ctx, contentID)
	if err != nil {
		return err
	}

	workflow, err := c.Store.LoadCached(ctx, status.WorkflowID)
	if err != nil {
		return err
	}

	state := workflow.State(status.StateID)
	if state == nil {
		return NewNotFoundError(KindState, fmt.Sprintf("%d/%d", status.WorkflowID, status.StateID))
	}

	roleID, err := c.votingRole(ctx, workflow, state.Transition(transitionID), status, userRoles)
	if err != nil {
		return err
	}

	return c.Ledger.Record(ctx, ContentApproval{
		ContentID:  contentID,
		WorkflowID: status.WorkflowID,
		StateID:    status.StateID,
		RoleID:     roleID,
		UserName:   userName,
	})
}

// votingRole picks the first role of the user which may use the transition and has not voted yet.
// For transitions open to all roles, it is the first workflow role of the user, or zero.
func (c *CoreDB) votingRole(ctx context.Context, w *Workflow, t *Transition, status ContentStatus, userRoles []string) (int, error) {

	var roleIDs = w.RoleIDs(userRoles)

	if t == nil || t.AllowAllRoles {
		if len(roleIDs) > 0 {
			return roleIDs[0], nil
		}
		return 0, nil
	}

	approvals, err := c.Ledger.FindByItemState(ctx, status.ContentID, status.WorkflowID, status.StateID)
	if err != nil {
		return 0, err
	}

	for _, roleID := range roleIDs {
		if CanActInRole(t, []int{roleID}, approvals) {
			return roleID, nil
		}
	}

	// admins may use any transition
	if len(roleIDs) > 0 {
		return roleIDs[0], nil
	}
	return 0, nil
}
