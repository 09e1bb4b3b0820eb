package domain

import "strings"

// Action is the disposition applied to non-keeper files of a group.
type Action string

const (
	ActionReport Action = "report" // Only log the group
	ActionMove   Action = "move"   // Relocate non-keepers into the output directory
	ActionDelete Action = "delete" // Remove non-keepers
)

// ParseAction converts a config or prompt value to an Action.
// Accepts the names and the menu numbers 1/2/3.
func ParseAction(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", string(ActionReport):
		return ActionReport, true
	case "2", string(ActionMove):
		return ActionMove, true
	case "3", string(ActionDelete):
		return ActionDelete, true
	default:
		return ActionReport, false
	}
}

// IsValid returns true for one of the known actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionReport, ActionMove, ActionDelete:
		return true
	default:
		return false
	}
}

// IsDestructive returns true if the action touches files on disk.
func (a Action) IsDestructive() bool {
	return a == ActionMove || a == ActionDelete
}

// String returns the action name
func (a Action) String() string {
	return string(a)
}
