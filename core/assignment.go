package core

import "strings"

// An AssignmentType is the permission level of a user on an item in its current state.
// Higher assignment types include lower ones. Compare them by value, the numbers are ranks.
type AssignmentType int

const (
	AssignNone     AssignmentType = 1
	AssignReader   AssignmentType = 10
	AssignAssignee AssignmentType = 20
	AssignAdmin    AssignmentType = 30
)

func (a AssignmentType) String() string {
	switch a {
	case AssignNone:
		return "none"
	case AssignReader:
		return "reader"
	case AssignAssignee:
		return "assignee"
	case AssignAdmin:
		return "admin"
	}
	return "unknown"
}

func (a AssignmentType) Valid() bool {
	switch a {
	case AssignNone, AssignReader, AssignAssignee, AssignAdmin:
		return true
	default:
		return false
	}
}

// AtLeast returns whether a is equal to or higher than other.
func (a AssignmentType) AtLeast(other AssignmentType) bool {
	return a >= other
}

// ParseAssignmentType parses the String representation, ignoring case.
func ParseAssignmentType(s string) (AssignmentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return AssignNone, true
	case "reader":
		return AssignReader, true
	case "assignee":
		return AssignAssignee, true
	case "admin":
		return AssignAdmin, true
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler, so assignment types are readable in JSON.
func (a AssignmentType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AssignmentType) UnmarshalText(text []byte) error {
	parsed, ok := ParseAssignmentType(string(text))
	if !ok {
		return &ValidationError{Field: "assignmentType", Reason: "unknown value " + string(text)}
	}
	*a = parsed
	return nil
}
