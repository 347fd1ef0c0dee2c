package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrRoadmapNotFound is returned by repositories when no roadmap exists
	// for the requested id or user.
	ErrRoadmapNotFound = errors.New("roadmap not found")

	// ErrEmptyProposal guards confirming a roadmap that has no milestones.
	ErrEmptyProposal = errors.New("cannot confirm a roadmap with no milestones")

	// ErrMilestoneNotFound is returned when a milestone id does not belong
	// to the roadmap.
	ErrMilestoneNotFound = errors.New("milestone not found in roadmap")
)

// InvalidTransitionError reports a conversation-state method called while the
// roadmap is not in a valid source state.
type InvalidTransitionError struct {
	Action string
	State  ConversationState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s while conversation is in state %s", e.Action, e.State)
}

func invalidTransition(action string, state ConversationState) error {
	return &InvalidTransitionError{Action: action, State: state}
}

// MilestoneStatusError reports a milestone lifecycle method called from an
// invalid status.
type MilestoneStatusError struct {
	Action string
	Status MilestoneStatus
}

func (e *MilestoneStatusError) Error() string {
	return fmt.Sprintf("cannot %s a milestone with status %s", e.Action, e.Status)
}
