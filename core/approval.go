package core

import (
	"context"
	"fmt"
	"strings"
)

// A ContentApproval records that a user has voted on an item in a state, acting in a role.
type ContentApproval struct {
	ContentID  int    `json:"contentId"`
	WorkflowID int    `json:"workflowId"`
	StateID    int    `json:"stateId"`
	RoleID     int    `json:"roleId"`
	UserName   string `json:"userName"`
}

type ApprovalDB interface {
	DeleteApproval(ctx context.Context, a ContentApproval) error
	DeleteApprovals(ctx context.Context, contentID int) error
	FindApprovalsByItem(ctx context.Context, contentID int) ([]ContentApproval, error)
	FindApprovalsByUser(ctx context.Context, userName string) ([]ContentApproval, error)
	HasApproval(ctx context.Context, userName string, workflowID, stateID, contentID int) (bool, error)
	InsertApproval(ctx context.Context, a ContentApproval) error
}

// An ApprovalLedger keeps track of votes. It expects the transition executor to clear the votes of an item when it leaves a state.
type ApprovalLedger struct {
	db ApprovalDB
}

func NewApprovalLedger(db ApprovalDB) *ApprovalLedger {
	return &ApprovalLedger{db: db}
}

// CleanUserName trims and lower-cases a user name, because user names are compared case-insensitively.
func CleanUserName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// HasUserActed returns whether the user has voted on the item in the given state, in any role.
func (l *ApprovalLedger) HasUserActed(ctx context.Context, userName string, workflowID, stateID, contentID int) (bool, error) {
	return l.db.HasApproval(ctx, CleanUserName(userName), workflowID, stateID, contentID)
}

func (l *ApprovalLedger) FindByUser(ctx context.Context, userName string) ([]ContentApproval, error) {
	return l.db.FindApprovalsByUser(ctx, CleanUserName(userName))
}

func (l *ApprovalLedger) FindByItem(ctx context.Context, contentID int) ([]ContentApproval, error) {
	return l.db.FindApprovalsByItem(ctx, contentID)
}

// FindByItemState returns the votes on an item in one state of a workflow.
func (l *ApprovalLedger) FindByItemState(ctx context.Context, contentID, workflowID, stateID int) ([]ContentApproval, error) {
	all, err := l.db.FindApprovalsByItem(ctx, contentID)
	if err != nil {
		return nil, err
	}
	var result = []ContentApproval{}
	for _, a := range all {
		if a.WorkflowID == workflowID && a.StateID == stateID {
			result = append(result, a)
		}
	}
	return result, nil
}

// Record stores a vote. A user can vote only once per item, state and role.
func (l *ApprovalLedger) Record(ctx context.Context, a ContentApproval) error {

	a.UserName = CleanUserName(a.UserName)
	if a.UserName == "" {
		return &ValidationError{Field: "user name", Reason: "empty"}
	}

	existing, err := l.FindByItemState(ctx, a.ContentID, a.WorkflowID, a.StateID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.RoleID == a.RoleID && e.UserName == a.UserName {
			return fmt.Errorf("%s on content %d in role %d: %w", a.UserName, a.ContentID, a.RoleID, ErrAlreadyVoted)
		}
	}

	return l.db.InsertApproval(ctx, a)
}

func (l *ApprovalLedger) Delete(ctx context.Context, a ContentApproval) error {
	a.UserName = CleanUserName(a.UserName)
	return l.db.DeleteApproval(ctx, a)
}

// DeleteAllForItem removes all votes on an item, so a fresh voting round can start.
func (l *ApprovalLedger) DeleteAllForItem(ctx context.Context, contentID int) error {
	return l.db.DeleteApprovals(ctx, contentID)
}
