package planner

import (
	"context"

	"github.com/google/uuid"
)

// Flat data shapes. These are the only sanctioned way a roadmap crosses the
// persistence or transport boundary.

type GoalData struct {
	Text string `json:"text"`
}

type MilestoneData struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      MilestoneStatus `json:"status"`
}

type RoadmapData struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"userId"`
	Goal              GoalData          `json:"goal"`
	Milestones        []MilestoneData   `json:"milestones"`
	ConversationState ConversationState `json:"conversationState"`
}

// ChatMessage is one turn of the planning dialogue as the client saw it.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// AIResponse is the planning service's structured answer: a follow-up
// question, a milestone proposal, or a normalized service error. Exactly one
// variant applies, selected by Type.
type AIResponseType string

const (
	ResponseQuestion AIResponseType = "QUESTION"
	ResponseProposal AIResponseType = "PROPOSAL"
	ResponseError    AIResponseType = "ERROR"
)

type MilestoneDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ProposalData struct {
	Goal       string           `json:"goal"`
	Milestones []MilestoneDraft `json:"milestones"`
}

type AIResponse struct {
	Type                AIResponseType `json:"type"`
	Text                string         `json:"text,omitempty"`
	Data                *ProposalData  `json:"data,omitempty"`
	AccompanyingMessage string         `json:"accompanyingMessage,omitempty"`
}

func Question(text string) AIResponse {
	return AIResponse{Type: ResponseQuestion, Text: text}
}

func Proposal(data ProposalData, accompanyingMessage string) AIResponse {
	return AIResponse{Type: ResponseProposal, Data: &data, AccompanyingMessage: accompanyingMessage}
}

func ServiceError(text string) AIResponse {
	return AIResponse{Type: ResponseError, Text: text}
}

// RoadmapRepository is the persistence port for the aggregate. Lookups return
// ErrRoadmapNotFound when nothing matches; FindActiveByUser only considers
// conversations that are not yet COMPLETED.
type RoadmapRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Roadmap, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*Roadmap, error)
	Save(ctx context.Context, roadmap *Roadmap) error
}

// PlanningService is the conversational AI that drives the dialogue.
// Implementations must absorb provider failures (HTTP errors, malformed
// output, timeouts) into a ResponseError value; a non-nil error is reserved
// for unrecoverable conditions such as a canceled context, in which case the
// orchestrator aborts the turn without saving.
type PlanningService interface {
	GetNextStep(ctx context.Context, roadmap RoadmapData, history []ChatMessage) (AIResponse, error)
}

// EventPublisher notifies downstream consumers, in particular the exercise
// generator that builds lessons from a confirmed roadmap's milestones.
type EventPublisher interface {
	RoadmapConfirmed(ctx context.Context, roadmap RoadmapData) error
	MilestoneCompleted(ctx context.Context, roadmap RoadmapData, milestone MilestoneData) error
}
