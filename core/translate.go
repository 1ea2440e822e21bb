package core

import "fmt"

// A Translator looks up localized labels. It returns defaultLabel if no translation exists.
type Translator interface {
	Translate(key, defaultLabel, locale string) string
}

// NoTranslation returns default labels.
type NoTranslation struct{}

func (NoTranslation) Translate(_, defaultLabel, _ string) string {
	return defaultLabel
}

// Translation keys of checkin and checkout actions.
const (
	KeyCheckin      = "action.checkin"
	KeyCheckout     = "action.checkout"
	KeyForceCheckin = "action.forcecheckin"
)

// TransitionLabelKey returns the translation key of a transition label.
func TransitionLabelKey(workflowID, transitionID int, label string) string {
	return fmt.Sprintf("workflow.%d.transition.%d@%s", workflowID, transitionID, label)
}
