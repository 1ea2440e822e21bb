package core

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

type memWorkflowDB struct {
	mu        sync.Mutex
	workflows map[int]*Workflow
	nextID    int
	loads     atomic.Int32
	gate      chan struct{} // if not nil, GetWorkflow blocks before returning until it is closed
}

func newMemWorkflowDB(workflows ...*Workflow) *memWorkflowDB {
	var db = &memWorkflowDB{
		workflows: make(map[int]*Workflow),
		nextID:    100,
	}
	for _, w := range workflows {
		db.workflows[w.ID] = w.Clone()
	}
	return db
}

func (db *memWorkflowDB) DeleteWorkflow(_ context.Context, id int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.workflows, id)
	return nil
}

func (db *memWorkflowDB) FindWorkflowIDs(_ context.Context, pattern string) ([]int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var prefix = strings.ToLower(strings.TrimSuffix(pattern, "%"))
	var ids []int
	for id, w := range db.workflows {
		if strings.HasPrefix(strings.ToLower(w.Name), prefix) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (db *memWorkflowDB) GetWorkflow(_ context.Context, id int) (*Workflow, error) {
	db.mu.Lock()
	w, ok := db.workflows[id]
	if ok {
		w = w.Clone()
	}
	db.mu.Unlock()

	db.loads.Add(1)
	if db.gate != nil {
		<-db.gate // the result is read already, like a slow query
	}

	if !ok {
		return nil, NewNotFoundError(KindWorkflow, id)
	}
	return w, nil
}

func (db *memWorkflowDB) SaveWorkflow(_ context.Context, w *Workflow) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if w.ID == 0 {
		db.nextID++
		w.ID = db.nextID
	}
	db.workflows[w.ID] = w.Clone()
	return nil
}

type memApprovalDB struct {
	approvals []ContentApproval
}

func (db *memApprovalDB) DeleteApproval(_ context.Context, a ContentApproval) error {
	var kept = db.approvals[:0]
	for _, e := range db.approvals {
		if e != a {
			kept = append(kept, e)
		}
	}
	db.approvals = kept
	return nil
}

func (db *memApprovalDB) DeleteApprovals(_ context.Context, contentID int) error {
	var kept = db.approvals[:0]
	for _, e := range db.approvals {
		if e.ContentID != contentID {
			kept = append(kept, e)
		}
	}
	db.approvals = kept
	return nil
}

func (db *memApprovalDB) FindApprovalsByItem(_ context.Context, contentID int) ([]ContentApproval, error) {
	var result []ContentApproval
	for _, e := range db.approvals {
		if e.ContentID == contentID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (db *memApprovalDB) FindApprovalsByUser(_ context.Context, userName string) ([]ContentApproval, error) {
	var result []ContentApproval
	for _, e := range db.approvals {
		if e.UserName == userName {
			result = append(result, e)
		}
	}
	return result, nil
}

func (db *memApprovalDB) HasApproval(_ context.Context, userName string, workflowID, stateID, contentID int) (bool, error) {
	for _, e := range db.approvals {
		if e.UserName == userName && e.WorkflowID == workflowID && e.StateID == stateID && e.ContentID == contentID {
			return true, nil
		}
	}
	return false, nil
}

func (db *memApprovalDB) InsertApproval(_ context.Context, a ContentApproval) error {
	db.approvals = append(db.approvals, a)
	return nil
}

type memContentDB map[int]ContentStatus

func (db memContentDB) GetStatus(_ context.Context, contentID int) (ContentStatus, error) {
	s, ok := db[contentID]
	if !ok {
		return ContentStatus{}, NewNotFoundError(KindContent, contentID)
	}
	return s, nil
}

func (db memContentDB) SetStatus(_ context.Context, s ContentStatus) error {
	db[s.ContentID] = s
	return nil
}

func (db memContentDB) SetCheckoutOwner(_ context.Context, contentID int, userName string) error {
	s, ok := db[contentID]
	if !ok {
		return NewNotFoundError(KindContent, contentID)
	}
	s.CheckoutOwner = userName
	db[contentID] = s
	return nil
}

// fixedResolver returns the same assignment type for every item.
type fixedResolver AssignmentType

func (r fixedResolver) AssignmentTypes(_ context.Context, contentIDs []int, _ string, _ []string) ([]AssignmentType, error) {
	var result = make([]AssignmentType, len(contentIDs))
	for i := range result {
		result[i] = AssignmentType(r)
	}
	return result, nil
}

type mapTranslator map[string]string

func (m mapTranslator) Translate(key, defaultLabel, locale string) string {
	if v, ok := m[locale+":"+key]; ok {
		return v
	}
	return defaultLabel
}

// Role ids of the test workflow.
const (
	roleDefault = 1
	roleEditor  = 2
	roleLegal   = 3
)

// testWorkflow returns a workflow with these states:
//
//	1 draft:     approve (all roles) -> 2, review (editor only) -> 3
//	2 published: publishable, retract (all roles) -> 1
//	3 review:    adhoc enabled, sign (editor or legal) -> 2
func testWorkflow() *Workflow {
	return &Workflow{
		ID:   1,
		Name: "Standard",
		Roles: map[int]string{
			roleDefault: "Default",
			roleEditor:  "Editor",
			roleLegal:   "Legal",
		},
		StartingStateID: 1,
		States: []*State{
			{
				ID:   1,
				Name: "Draft",
				Roles: []StateRole{
					{RoleID: roleDefault, Assignment: AssignAssignee},
					{RoleID: roleEditor, Assignment: AssignAdmin},
				},
				Transitions: []*Transition{
					{ID: 11, TargetStateID: 2, Trigger: "approve", Label: "Approve", AllowAllRoles: true},
					{ID: 12, TargetStateID: 3, Trigger: "review", Label: "Send to Review", Roles: []TransitionRole{{RoleID: roleEditor, Allowed: true}}, Comment: CommentRequired},
				},
			},
			{
				ID:          2,
				Name:        "Published",
				Publishable: true,
				Roles: []StateRole{
					{RoleID: roleDefault, Assignment: AssignReader},
					{RoleID: roleEditor, Assignment: AssignAdmin},
				},
				Transitions: []*Transition{
					{ID: 21, TargetStateID: 1, Trigger: "retract", Label: "Retract", AllowAllRoles: true},
				},
			},
			{
				ID:           3,
				Name:         "Review",
				AdhocEnabled: true,
				Roles: []StateRole{
					{RoleID: roleEditor, Assignment: AssignAssignee},
					{RoleID: roleLegal, Assignment: AssignAssignee, Adhoc: true},
				},
				Transitions: []*Transition{
					{ID: 31, TargetStateID: 2, Trigger: "sign", Label: "Sign", Roles: []TransitionRole{{RoleID: roleEditor, Allowed: true}, {RoleID: roleLegal, Allowed: true}, {RoleID: roleDefault, Allowed: false}}},
				},
			},
		},
	}
}
