package core

import (
	"bytes"
	"sort"
	"strings"
)

// CommentRequirement tells whether a transition asks for a comment.
type CommentRequirement int

const (
	CommentOptional CommentRequirement = iota
	CommentRequired
	CommentDoNotShow
)

func (c CommentRequirement) String() string {
	switch c {
	case CommentRequired:
		return "required"
	case CommentDoNotShow:
		return "hidden"
	default:
		return "optional"
	}
}

func (c CommentRequirement) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *CommentRequirement) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "required":
		*c = CommentRequired
	case "hidden", "do_not_show":
		*c = CommentDoNotShow
	default:
		*c = CommentOptional
	}
	return nil
}

// A Workflow is a graph of states and transitions.
//
// A Workflow returned by WorkflowStore.LoadCached is shared between goroutines and must not be modified.
// Use WorkflowStore.LoadEditable to get a private copy.
type Workflow struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	Roles           map[int]string `json:"roles"` // role id -> role name
	States          []*State       `json:"states"`
	StartingStateID int            `json:"startingStateId"`
}

// A State is a node of the workflow graph. It owns its outgoing transitions.
type State struct {
	ID           int           `json:"id"`
	WorkflowID   int           `json:"workflowId"`
	Name         string        `json:"name"`
	Publishable  bool          `json:"publishable"`  // content in this state is valid and published
	AdhocEnabled bool          `json:"adhocEnabled"` // users can be assigned to this state per item
	Roles        []StateRole   `json:"roles"`
	Transitions  []*Transition `json:"transitions"`
}

// A StateRole maps a workflow role to the assignment type its members get in a state.
type StateRole struct {
	RoleID     int            `json:"roleId"`
	Assignment AssignmentType `json:"assignment"`
	Adhoc      bool           `json:"adhoc"` // adhoc users of this role get assignee access
}

// A Transition is a directed edge between two states.
type Transition struct {
	ID            int                `json:"id"`
	StateID       int                `json:"stateId"`
	TargetStateID int                `json:"targetStateId"`
	Trigger       string             `json:"trigger"`
	Label         string             `json:"label"`
	AllowAllRoles bool               `json:"allowAllRoles"`
	Roles         []TransitionRole   `json:"roles"` // ignored if AllowAllRoles
	Comment       CommentRequirement `json:"comment"`
}

type TransitionRole struct {
	RoleID  int  `json:"roleId"`
	Allowed bool `json:"allowed"`
}

// State returns the state with the given id, or nil.
func (w *Workflow) State(id int) *State {
	for _, s := range w.States {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// StartingState returns the state which new items enter, or nil.
func (w *Workflow) StartingState() *State {
	return w.State(w.StartingStateID)
}

// RoleIDs maps role names to ids of this workflow, ignoring case. Unknown names are skipped.
func (w *Workflow) RoleIDs(names []string) []int {
	var ids = []int{}
	for id, roleName := range w.Roles {
		for _, name := range names {
			if strings.EqualFold(strings.TrimSpace(name), roleName) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Ints(ids)
	return ids
}

// Clone returns a deep copy.
func (w *Workflow) Clone() *Workflow {
	var c = &Workflow{
		ID:              w.ID,
		Name:            w.Name,
		Roles:           make(map[int]string, len(w.Roles)),
		States:          make([]*State, len(w.States)),
		StartingStateID: w.StartingStateID,
	}
	for id, name := range w.Roles {
		c.Roles[id] = name
	}
	for i, s := range w.States {
		c.States[i] = s.clone()
	}
	return c
}

func (w *Workflow) String() string {
	var buf bytes.Buffer
	buf.WriteString(w.Name)
	if len(w.States) > 0 {
		buf.WriteString(" (")
		for i, s := range w.States {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(s.Name)
		}
		buf.WriteString(")")
	}
	return buf.String()
}

// Role returns the state role entry for the given role id.
func (s *State) Role(roleID int) (StateRole, bool) {
	for _, r := range s.Roles {
		if r.RoleID == roleID {
			return r, true
		}
	}
	return StateRole{}, false
}

// Transition returns the outgoing transition with the given id, or nil.
func (s *State) Transition(id int) *Transition {
	for _, t := range s.Transitions {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *State) clone() *State {
	var c = *s
	c.Roles = append([]StateRole(nil), s.Roles...)
	c.Transitions = make([]*Transition, len(s.Transitions))
	for i, t := range s.Transitions {
		var ct = *t
		ct.Roles = append([]TransitionRole(nil), t.Roles...)
		c.Transitions[i] = &ct
	}
	return &c
}

// normalize drops transition roles of transitions which are open to all roles.
func (w *Workflow) normalize() {
	for _, s := range w.States {
		s.WorkflowID = w.ID
		for _, t := range s.Transitions {
			t.StateID = s.ID
			if t.AllowAllRoles {
				t.Roles = nil
			}
		}
	}
}
