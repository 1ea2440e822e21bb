package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// A WorkflowDB persists workflow graphs.
type WorkflowDB interface {
	DeleteWorkflow(ctx context.Context, id int) error                   // no error if absent
	FindWorkflowIDs(ctx context.Context, pattern string) ([]int, error) // SQL LIKE pattern, case-insensitive, ordered by name
	GetWorkflow(ctx context.Context, id int) (*Workflow, error)         // *NotFoundError if absent
	SaveWorkflow(ctx context.Context, w *Workflow) error                // inserts if w.ID is zero and sets w.ID
}

// A WorkflowStore loads workflows and caches them.
//
// Cached workflows are published once and never modified afterwards, so readers don't need locks.
// Save and Delete invalidate the cache entry before they return.
type WorkflowStore struct {
	db    WorkflowDB
	cache sync.Map // workflow id -> *Workflow
	group singleflight.Group

	mu          sync.Mutex
	generations map[int]uint64 // incremented on invalidation, guarded by mu
}

func NewWorkflowStore(db WorkflowDB) *WorkflowStore {
	return &WorkflowStore{
		db:          db,
		generations: make(map[int]uint64),
	}
}

// LoadCached returns the shared instance of a workflow. Callers must not modify it.
func (s *WorkflowStore) LoadCached(ctx context.Context, id int) (*Workflow, error) {

	if w, ok := s.cache.Load(id); ok {
		return w.(*Workflow), nil
	}

	// the load is shared, so it must not fail when the caller who started it goes away
	var ch = s.group.DoChan(strconv.Itoa(id), func() (interface{}, error) {

		if w, ok := s.cache.Load(id); ok {
			return w, nil
		}

		var generation = s.generation(id)

		w, err := s.db.GetWorkflow(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		w.normalize()

		s.publish(id, generation, w)
		return w, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("loading workflow %d: %w", id, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("loading workflow %d: %w", id, r.Err)
		}
		return r.Val.(*Workflow), nil
	}
}

// LoadEditable returns a private copy of a workflow which can be modified and passed to Save.
func (s *WorkflowStore) LoadEditable(ctx context.Context, id int) (*Workflow, error) {
	w, err := s.LoadCached(ctx, id)
	if err != nil {
		return nil, err
	}
	return w.Clone(), nil
}

// LoadState returns a state of a cached workflow.
func (s *WorkflowStore) LoadState(ctx context.Context, workflowID, stateID int) (*State, error) {
	w, err := s.LoadCached(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	state := w.State(stateID)
	if state == nil {
		return nil, NewNotFoundError(KindState, fmt.Sprintf("%d/%d", workflowID, stateID))
	}
	return state, nil
}

// Save validates and persists a workflow and invalidates its cache entry.
// The caller must not use w afterwards, because the next LoadCached may not return it.
func (s *WorkflowStore) Save(ctx context.Context, w *Workflow) error {

	if err := validateWorkflow(w); err != nil {
		return err
	}
	w.normalize()

	if err := s.db.SaveWorkflow(ctx, w); err != nil {
		return fmt.Errorf("saving workflow %s: %w", w.Name, err)
	}

	s.invalidate(w.ID)
	return nil
}

// FindByName returns the workflows whose name matches a pattern. "%" matches any sequence of characters, case is ignored.
func (s *WorkflowStore) FindByName(ctx context.Context, pattern string) ([]*Workflow, error) {

	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = "%"
	}

	ids, err := s.db.FindWorkflowIDs(ctx, pattern)
	if err != nil {
		return nil, err
	}

	var result = make([]*Workflow, 0, len(ids))
	for _, id := range ids {
		w, err := s.LoadCached(ctx, id)
		if IsNotFound(err) {
			continue // deleted in between
		}
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, nil
}

// Delete removes a workflow. It does nothing if the workflow does not exist.
func (s *WorkflowStore) Delete(ctx context.Context, id int) error {
	if err := s.db.DeleteWorkflow(ctx, id); err != nil {
		return fmt.Errorf("deleting workflow %d: %w", id, err)
	}
	s.invalidate(id)
	return nil
}

// AddWorkflowRole adds a role to a workflow. Every state grants reader access to the new role.
// Transition roles are not changed.
func (s *WorkflowStore) AddWorkflowRole(ctx context.Context, workflowID int, roleID int, roleName string) error {

	w, err := s.LoadEditable(ctx, workflowID)
	if err != nil {
		return err
	}

	if _, ok := w.Roles[roleID]; ok {
		return nil
	}
	w.Roles[roleID] = roleName

	for _, state := range w.States {
		if _, ok := state.Role(roleID); !ok {
			state.Roles = append(state.Roles, StateRole{
				RoleID:     roleID,
				Assignment: AssignReader,
			})
		}
	}

	return s.Save(ctx, w)
}

// RemoveWorkflowRole removes a role from a workflow and from its states.
// Transition roles are not changed.
func (s *WorkflowStore) RemoveWorkflowRole(ctx context.Context, workflowID int, roleID int) error {

	w, err := s.LoadEditable(ctx, workflowID)
	if err != nil {
		return err
	}

	if _, ok := w.Roles[roleID]; !ok {
		return nil
	}
	delete(w.Roles, roleID)

	for _, state := range w.States {
		var kept = state.Roles[:0]
		for _, r := range state.Roles {
			if r.RoleID != roleID {
				kept = append(kept, r)
			}
		}
		state.Roles = kept
	}

	return s.Save(ctx, w)
}

func (s *WorkflowStore) generation(id int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[id]
}

// publish stores w unless the entry has been invalidated since generation was read.
func (s *WorkflowStore) publish(id int, generation uint64, w *Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[id] == generation {
		s.cache.Store(id, w)
	}
}

func (s *WorkflowStore) invalidate(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[id]++
	s.cache.Delete(id)
	s.group.Forget(strconv.Itoa(id))
}

func validateWorkflow(w *Workflow) error {

	if w == nil {
		return &ValidationError{Field: "workflow", Reason: "missing"}
	}

	if strings.TrimSpace(w.Name) == "" {
		return &ValidationError{Field: "workflow name", Reason: "empty"}
	}

	var states = make(map[int]struct{}, len(w.States))
	for _, s := range w.States {
		if s.ID <= 0 {
			return &ValidationError{Field: "state id", Reason: fmt.Sprintf("invalid id %d", s.ID)}
		}
		if _, dup := states[s.ID]; dup {
			return &ValidationError{Field: "state id", Reason: fmt.Sprintf("duplicate id %d", s.ID)}
		}
		states[s.ID] = struct{}{}
	}

	if len(w.States) > 0 {
		if _, ok := states[w.StartingStateID]; !ok {
			return &ValidationError{Field: "starting state", Reason: fmt.Sprintf("state %d does not exist", w.StartingStateID)}
		}
	}

	var transitions = make(map[int]struct{})
	for _, s := range w.States {
		for _, r := range s.Roles {
			if !r.Assignment.Valid() {
				return &ValidationError{Field: "assignment type", Reason: fmt.Sprintf("invalid value %d in state %d", r.Assignment, s.ID)}
			}
		}
		for _, t := range s.Transitions {
			if t.ID <= 0 {
				return &ValidationError{Field: "transition id", Reason: fmt.Sprintf("invalid id %d", t.ID)}
			}
			if _, dup := transitions[t.ID]; dup {
				return &ValidationError{Field: "transition id", Reason: fmt.Sprintf("duplicate id %d", t.ID)}
			}
			transitions[t.ID] = struct{}{}
			if _, ok := states[t.TargetStateID]; !ok {
				return &ValidationError{Field: "transition target", Reason: fmt.Sprintf("transition %d leads to unknown state %d", t.ID, t.TargetStateID)}
			}
			if strings.TrimSpace(t.Trigger) == "" {
				return &ValidationError{Field: "transition trigger", Reason: fmt.Sprintf("transition %d has no trigger", t.ID)}
			}
		}
	}

	return nil
}
