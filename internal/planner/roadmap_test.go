package planner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDrafts = []MilestoneDraft{
	{Title: "Saludos", Description: "Saluda y preséntate en una reunión."},
	{Title: "Agenda", Description: "Sigue y comenta la agenda de una reunión."},
}

func TestStartConversation(t *testing.T) {
	userID := uuid.New()
	r := StartConversation(userID)

	assert.Equal(t, userID, r.UserID())
	assert.Equal(t, StateGreetingSent, r.State())
	assert.Equal(t, "", r.Goal().Text)
	assert.Empty(t, r.Milestones())
}

func TestRoadmap_DefineGoal(t *testing.T) {
	r := StartConversation(uuid.New())

	require.NoError(t, r.DefineGoal("Hablar en reuniones de trabajo"))
	assert.Equal(t, StateGatheringDetails, r.State())
	assert.Equal(t, "Hablar en reuniones de trabajo", r.Goal().Text)

	// Second call fails: the goal is only stated once
	err := r.DefineGoal("otro objetivo")
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StateGatheringDetails, transitionErr.State)
	assert.Equal(t, "Hablar en reuniones de trabajo", r.Goal().Text)
}

func TestRoadmap_GenerateProposal(t *testing.T) {
	r := StartConversation(uuid.New())

	// Not valid before the goal is stated
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, r.GenerateProposal(testDrafts), &transitionErr)

	require.NoError(t, r.DefineGoal("Hablar en reuniones"))
	require.NoError(t, r.GenerateProposal(testDrafts))

	assert.Equal(t, StateProposalGenerated, r.State())
	milestones := r.Milestones()
	require.Len(t, milestones, 2)
	for _, m := range milestones {
		assert.Equal(t, MilestoneLocked, m.Status())
	}

	// Not valid once the proposal is confirmed
	require.NoError(t, r.ConfirmProposal())
	require.ErrorAs(t, r.GenerateProposal(testDrafts), &transitionErr)
	assert.Equal(t, StateCompleted, transitionErr.State)
}

func TestRoadmap_GenerateProposal_InvalidDraft(t *testing.T) {
	r := StartConversation(uuid.New())
	require.NoError(t, r.DefineGoal("Hablar en reuniones"))

	err := r.GenerateProposal([]MilestoneDraft{{Title: "", Description: "x"}})
	require.Error(t, err)
	assert.Equal(t, StateGatheringDetails, r.State())
	assert.Empty(t, r.Milestones())
}

func TestRoadmap_ConfirmProposal(t *testing.T) {
	r := StartConversation(uuid.New())
	require.NoError(t, r.DefineGoal("Hablar en reuniones"))
	require.NoError(t, r.GenerateProposal(testDrafts))

	require.NoError(t, r.ConfirmProposal())
	assert.Equal(t, StateCompleted, r.State())

	milestones := r.Milestones()
	assert.Equal(t, MilestoneUnlocked, milestones[0].Status())
	assert.Equal(t, MilestoneLocked, milestones[1].Status())

	// Already terminal
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, r.ConfirmProposal(), &transitionErr)
}

func TestRoadmap_ConfirmProposal_RequiresMilestones(t *testing.T) {
	// An empty milestone list can only come from persisted data, never from
	// GenerateProposal; the guard still has to hold.
	r := RoadmapFromData(RoadmapData{
		ID:                uuid.New(),
		UserID:            uuid.New(),
		Goal:              GoalData{Text: "Hablar en reuniones"},
		ConversationState: StateProposalGenerated,
	})

	assert.ErrorIs(t, r.ConfirmProposal(), ErrEmptyProposal)
	assert.Equal(t, StateProposalGenerated, r.State())
}

func TestRoadmap_RequestRevisions(t *testing.T) {
	r := StartConversation(uuid.New())
	require.NoError(t, r.DefineGoal("Hablar en reuniones"))

	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, r.RequestRevisions(), &transitionErr)

	require.NoError(t, r.GenerateProposal(testDrafts))
	oldIDs := []uuid.UUID{r.Milestones()[0].ID(), r.Milestones()[1].ID()}

	require.NoError(t, r.RequestRevisions())
	assert.Equal(t, StateAwaitingRevisions, r.State())

	// Regenerating replaces the old plan wholesale
	newDrafts := []MilestoneDraft{
		{Title: "Presentaciones", Description: "Presenta un tema corto."},
	}
	require.NoError(t, r.GenerateProposal(newDrafts))

	milestones := r.Milestones()
	require.Len(t, milestones, 1)
	assert.Equal(t, "Presentaciones", milestones[0].Title())
	assert.Equal(t, MilestoneLocked, milestones[0].Status())
	assert.NotContains(t, oldIDs, milestones[0].ID())
}

func TestRoadmap_CompleteMilestone(t *testing.T) {
	r := StartConversation(uuid.New())
	require.NoError(t, r.DefineGoal("Hablar en reuniones"))
	require.NoError(t, r.GenerateProposal(append(testDrafts, MilestoneDraft{
		Title: "Cierre", Description: "Cierra una reunión con próximos pasos.",
	})))
	require.NoError(t, r.ConfirmProposal())

	milestones := r.Milestones()

	// Completing a LOCKED milestone fails
	_, err := r.CompleteMilestone(milestones[1].ID())
	var statusErr *MilestoneStatusError
	require.ErrorAs(t, err, &statusErr)

	// Completing an unknown id fails
	_, err = r.CompleteMilestone(uuid.New())
	assert.ErrorIs(t, err, ErrMilestoneNotFound)

	// Completing the unlocked one opens the next
	next, err := r.CompleteMilestone(milestones[0].ID())
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, milestones[1].ID(), next.ID())
	assert.Equal(t, MilestoneCompleted, milestones[0].Status())
	assert.Equal(t, MilestoneUnlocked, milestones[1].Status())
	assert.Equal(t, MilestoneLocked, milestones[2].Status())

	// Completing the last one has nothing left to unlock
	_, err = r.CompleteMilestone(milestones[1].ID())
	require.NoError(t, err)
	next, err = r.CompleteMilestone(milestones[2].ID())
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRoadmap_DataRoundTrip(t *testing.T) {
	r := StartConversation(uuid.New())
	require.NoError(t, r.DefineGoal("Hablar en reuniones de trabajo"))
	require.NoError(t, r.GenerateProposal(testDrafts))
	require.NoError(t, r.ConfirmProposal())

	data := r.ToData()
	restored := RoadmapFromData(data)

	assert.Equal(t, data, restored.ToData())
	assert.Equal(t, r.ID(), restored.ID())
	assert.Equal(t, r.UserID(), restored.UserID())
	assert.Equal(t, r.Goal(), restored.Goal())
	assert.Equal(t, r.State(), restored.State())

	// The restored aggregate behaves like the original
	milestones := restored.Milestones()
	require.Len(t, milestones, 2)
	_, err := restored.CompleteMilestone(milestones[0].ID())
	require.NoError(t, err)
	assert.Equal(t, MilestoneUnlocked, milestones[1].Status())
}
