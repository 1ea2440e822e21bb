package core

import "strconv"

// ContentIDPlaceholder is left in Action.Params for the caller to replace with the id of each item.
const ContentIDPlaceholder = "$sys_contentid"

type ActionKind int

const (
	ActionCheckin ActionKind = iota + 1
	ActionCheckout
	ActionForceCheckin
	ActionTransition
)

func (k ActionKind) String() string {
	switch k {
	case ActionCheckin:
		return "checkin"
	case ActionCheckout:
		return "checkout"
	case ActionForceCheckin:
		return "forcecheckin"
	case ActionTransition:
		return "transition"
	}
	return "unknown"
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// An Action is something a user can do with a batch of items.
type Action struct {
	Name          string             `json:"name"` // trigger of a transition, or the kind
	Label         string             `json:"label"`
	Kind          ActionKind         `json:"kind"`
	TransitionID  int                `json:"transitionId,omitempty"`
	TargetStateID int                `json:"targetStateId,omitempty"`
	Adhoc         bool               `json:"adhoc"`
	Comment       CommentRequirement `json:"comment"`
	Params        map[string]string  `json:"params"`
}

// Equal compares the identity of two actions: kind, trigger, target state and the adhoc flag.
// Labels and parameters don't matter.
func (a Action) Equal(b Action) bool {
	return a.Kind == b.Kind &&
		a.Name == b.Name &&
		a.TargetStateID == b.TargetStateID &&
		a.Adhoc == b.Adhoc
}

// IsCIAO returns whether the action is a checkin, checkout or force-checkin.
func (a Action) IsCIAO() bool {
	return a.Kind != ActionTransition
}

func newCIAOAction(kind ActionKind, label string) Action {
	return Action{
		Name:    kind.String(),
		Label:   label,
		Kind:    kind,
		Comment: CommentDoNotShow,
		Params: map[string]string{
			"sys_command":   kind.String(),
			"sys_contentid": ContentIDPlaceholder,
		},
	}
}

func newTransitionAction(t *Transition, target *State, label string) Action {
	return Action{
		Name:          t.Trigger,
		Label:         label,
		Kind:          ActionTransition,
		TransitionID:  t.ID,
		TargetStateID: t.TargetStateID,
		Adhoc:         target.AdhocEnabled,
		Comment:       t.Comment,
		Params: map[string]string{
			"sys_command":   "workflow",
			"sys_contentid": ContentIDPlaceholder,
			"WFAction":      t.Trigger,
			"transitionid":  strconv.Itoa(t.ID),
		},
	}
}

// retainAll keeps the actions of list which are also in other. The order of list is preserved.
func retainAll(list, other []Action) []Action {
	var result = []Action{}
	for _, a := range list {
		for _, b := range other {
			if a.Equal(b) {
				result = append(result, a)
				break
			}
		}
	}
	return result
}

func withoutAdhoc(list []Action) []Action {
	var result = make([]Action, 0, len(list))
	for _, a := range list {
		if !a.Adhoc {
			result = append(result, a)
		}
	}
	return result
}
