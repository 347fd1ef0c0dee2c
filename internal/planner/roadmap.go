package planner

import (
	"github.com/google/uuid"
)

// ConversationState is the roadmap's phase in the scripted planning dialogue.
type ConversationState string

const (
	StateGreetingSent      ConversationState = "GREETING_SENT"
	StateGatheringDetails  ConversationState = "GATHERING_DETAILS"
	StateProposalGenerated ConversationState = "PROPOSAL_GENERATED"
	StateAwaitingRevisions ConversationState = "AWAITING_REVISIONS"
	StateCompleted         ConversationState = "COMPLETED"
)

// Goal is the user's stated learning objective. Empty text is the valid
// initial state before the first user message.
type Goal struct {
	Text string
}

// Roadmap is the aggregate for one goal-planning conversation: the user's
// goal, the ordered milestone plan, and the conversation state machine.
// All mutation goes through the methods below; the state machine is
//
//	GREETING_SENT -> GATHERING_DETAILS -> PROPOSAL_GENERATED
//	PROPOSAL_GENERATED <-> AWAITING_REVISIONS
//	PROPOSAL_GENERATED -> COMPLETED (terminal)
//
// and every other transition fails with an InvalidTransitionError.
type Roadmap struct {
	id         uuid.UUID
	userID     uuid.UUID
	goal       Goal
	milestones []*Milestone
	state      ConversationState
}

// StartConversation creates a fresh roadmap in GREETING_SENT with an empty
// goal and no milestones.
func StartConversation(userID uuid.UUID) *Roadmap {
	return &Roadmap{
		id:     uuid.New(),
		userID: userID,
		state:  StateGreetingSent,
	}
}

// RoadmapFromData reconstructs a persisted roadmap. Trusted input; the state
// machine is not replayed.
func RoadmapFromData(data RoadmapData) *Roadmap {
	milestones := make([]*Milestone, len(data.Milestones))
	for i, md := range data.Milestones {
		milestones[i] = milestoneFromData(md)
	}
	return &Roadmap{
		id:         data.ID,
		userID:     data.UserID,
		goal:       Goal{Text: data.Goal.Text},
		milestones: milestones,
		state:      data.ConversationState,
	}
}

func (r *Roadmap) ID() uuid.UUID            { return r.id }
func (r *Roadmap) UserID() uuid.UUID        { return r.userID }
func (r *Roadmap) Goal() Goal               { return r.goal }
func (r *Roadmap) State() ConversationState { return r.state }

// Milestones returns the plan in presentation/unlock order. The slice is a
// copy; the milestones themselves stay owned by the aggregate.
func (r *Roadmap) Milestones() []*Milestone {
	out := make([]*Milestone, len(r.milestones))
	copy(out, r.milestones)
	return out
}

// DefineGoal records the user's stated objective. Only valid as the first
// user turn, while the greeting is the only thing sent.
func (r *Roadmap) DefineGoal(text string) error {
	if r.state != StateGreetingSent {
		return invalidTransition("define goal", r.state)
	}
	r.goal = Goal{Text: text}
	r.state = StateGatheringDetails
	return nil
}

// GenerateProposal replaces the milestone plan wholesale with fresh LOCKED
// milestones built from the AI's proposal. Valid while gathering details or
// after the user asked for revisions; a regenerated proposal discards the
// previous one entirely rather than merging.
func (r *Roadmap) GenerateProposal(drafts []MilestoneDraft) error {
	if r.state != StateGatheringDetails && r.state != StateAwaitingRevisions {
		return invalidTransition("generate proposal", r.state)
	}

	milestones := make([]*Milestone, 0, len(drafts))
	for _, d := range drafts {
		m, err := newMilestone(d.Title, d.Description)
		if err != nil {
			return err
		}
		milestones = append(milestones, m)
	}

	r.milestones = milestones
	r.state = StateProposalGenerated
	return nil
}

// ConfirmProposal locks the plan in and ends the conversation. The first
// milestone is unlocked; the rest stay LOCKED until completion events unlock
// them one by one.
func (r *Roadmap) ConfirmProposal() error {
	if r.state != StateProposalGenerated {
		return invalidTransition("confirm proposal", r.state)
	}
	if len(r.milestones) == 0 {
		return ErrEmptyProposal
	}

	r.milestones[0].Unlock()
	r.state = StateCompleted
	return nil
}

// RequestRevisions reopens a generated proposal for another AI pass.
func (r *Roadmap) RequestRevisions() error {
	if r.state != StateProposalGenerated {
		return invalidTransition("request revisions", r.state)
	}
	r.state = StateAwaitingRevisions
	return nil
}

// CompleteMilestone marks the given milestone COMPLETED and unlocks the next
// LOCKED one, keeping progression strictly linear. The milestone must be
// UNLOCKED; nextUnlocked reports whether a follow-up milestone was opened.
func (r *Roadmap) CompleteMilestone(id uuid.UUID) (nextUnlocked *Milestone, err error) {
	idx := -1
	for i, m := range r.milestones {
		if m.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrMilestoneNotFound
	}

	if err := r.milestones[idx].Complete(); err != nil {
		return nil, err
	}

	for _, m := range r.milestones[idx+1:] {
		if m.status == MilestoneLocked {
			m.Unlock()
			return m, nil
		}
	}
	return nil, nil
}

// ToData returns the flat snapshot used for persistence and transport.
func (r *Roadmap) ToData() RoadmapData {
	milestones := make([]MilestoneData, len(r.milestones))
	for i, m := range r.milestones {
		milestones[i] = m.ToData()
	}
	return RoadmapData{
		ID:                r.id,
		UserID:            r.userID,
		Goal:              GoalData{Text: r.goal.Text},
		Milestones:        milestones,
		ConversationState: r.state,
	}
}
