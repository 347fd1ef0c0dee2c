package planner

import (
	"errors"

	"github.com/google/uuid"
)

type MilestoneStatus string

const (
	MilestoneLocked    MilestoneStatus = "LOCKED"
	MilestoneUnlocked  MilestoneStatus = "UNLOCKED"
	MilestoneCompleted MilestoneStatus = "COMPLETED"
)

// Milestone is one checkpoint in a roadmap's learning plan. Milestones are
// owned by their Roadmap and only change through it; status moves strictly
// forward (LOCKED -> UNLOCKED -> COMPLETED).
type Milestone struct {
	id          uuid.UUID
	title       string
	description string
	status      MilestoneStatus
}

func newMilestone(title, description string) (*Milestone, error) {
	if title == "" {
		return nil, errors.New("milestone title must not be empty")
	}
	if description == "" {
		return nil, errors.New("milestone description must not be empty")
	}
	return &Milestone{
		id:          uuid.New(),
		title:       title,
		description: description,
		status:      MilestoneLocked,
	}, nil
}

// milestoneFromData reconstructs a persisted milestone. The input is trusted;
// business rules are not re-validated here.
func milestoneFromData(data MilestoneData) *Milestone {
	return &Milestone{
		id:          data.ID,
		title:       data.Title,
		description: data.Description,
		status:      data.Status,
	}
}

func (m *Milestone) ID() uuid.UUID           { return m.id }
func (m *Milestone) Title() string           { return m.title }
func (m *Milestone) Description() string     { return m.description }
func (m *Milestone) Status() MilestoneStatus { return m.status }

// Unlock moves a LOCKED milestone to UNLOCKED. Unlocking an already-unlocked
// or completed milestone is a safe no-op; the return value tells callers
// whether anything changed so they can log the skip.
func (m *Milestone) Unlock() bool {
	if m.status != MilestoneLocked {
		return false
	}
	m.status = MilestoneUnlocked
	return true
}

// Complete moves an UNLOCKED milestone to COMPLETED. Any other status is a
// hard error: LOCKED milestones must be unlocked first, and completion is
// final.
func (m *Milestone) Complete() error {
	if m.status != MilestoneUnlocked {
		return &MilestoneStatusError{Action: "complete", Status: m.status}
	}
	m.status = MilestoneCompleted
	return nil
}

func (m *Milestone) ToData() MilestoneData {
	return MilestoneData{
		ID:          m.id,
		Title:       m.title,
		Description: m.description,
		Status:      m.status,
	}
}
