package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fluentblocks/fluentblocks-api/internal/logger"
)

// Usecases wires the roadmap aggregate to its repository, the AI planning
// service, and the downstream event publisher. It holds no state of its own;
// everything lives in the persisted roadmap.
type Usecases struct {
	repo   RoadmapRepository
	ai     PlanningService
	events EventPublisher
	log    *logger.Logger
}

func NewUsecases(repo RoadmapRepository, ai PlanningService, events EventPublisher, log *logger.Logger) *Usecases {
	return &Usecases{
		repo:   repo,
		ai:     ai,
		events: events,
		log:    log.With("service", "PlannerUsecases"),
	}
}

type ProcessMessageInput struct {
	UserID    uuid.UUID
	Message   string
	RoadmapID *uuid.UUID
	History   []ChatMessage
}

type ProcessMessageResult struct {
	Response AIResponse  `json:"aiResponse"`
	Roadmap  RoadmapData `json:"roadmap"`
}

// ProcessUserMessage runs one turn of the goal-planning conversation.
//
// An absent or stale RoadmapID always starts a fresh conversation — it is
// never treated as an error. This is deliberate: a client that lost its
// roadmap id (page refresh, expired local state) wants a new conversation,
// not a resumed zombie. The fresh roadmap is saved immediately so it has a
// durable id before the AI call.
//
// The AI call happens after the user's message has been applied; a PROPOSAL
// answer replaces the milestone plan, and the roadmap is saved exactly once
// at the end of the turn regardless of the answer's type. If the planning
// service fails hard (context canceled), the turn aborts without that final
// save — persistence here is at-most-once, not transactional.
func (u *Usecases) ProcessUserMessage(ctx context.Context, in ProcessMessageInput) (*ProcessMessageResult, error) {
	roadmap, err := u.resolveRoadmap(ctx, in)
	if err != nil {
		return nil, err
	}

	if roadmap.State() == StateGreetingSent && in.Message != "" {
		if err := roadmap.DefineGoal(in.Message); err != nil {
			return nil, err
		}
	}

	history := in.History
	if in.Message != "" {
		history = append(append([]ChatMessage{}, in.History...), ChatMessage{Role: RoleUser, Content: in.Message})
	}

	response, err := u.ai.GetNextStep(ctx, roadmap.ToData(), history)
	if err != nil {
		return nil, fmt.Errorf("planning service: %w", err)
	}

	if response.Type == ResponseProposal && response.Data != nil {
		if err := roadmap.GenerateProposal(response.Data.Milestones); err != nil {
			return nil, err
		}
	}

	if err := u.repo.Save(ctx, roadmap); err != nil {
		return nil, fmt.Errorf("save roadmap: %w", err)
	}

	return &ProcessMessageResult{Response: response, Roadmap: roadmap.ToData()}, nil
}

func (u *Usecases) resolveRoadmap(ctx context.Context, in ProcessMessageInput) (*Roadmap, error) {
	if in.RoadmapID != nil {
		roadmap, err := u.repo.FindByID(ctx, *in.RoadmapID)
		if err == nil {
			return roadmap, nil
		}
		if !errors.Is(err, ErrRoadmapNotFound) {
			return nil, fmt.Errorf("load roadmap: %w", err)
		}
		u.log.Info("stale roadmap id, starting fresh conversation", "roadmapId", *in.RoadmapID)
	}

	roadmap := StartConversation(in.UserID)
	if err := u.repo.Save(ctx, roadmap); err != nil {
		return nil, fmt.Errorf("save new roadmap: %w", err)
	}
	return roadmap, nil
}

// ConfirmRoadmap turns a generated proposal into the user's committed plan
// and notifies the exercise-generation pipeline.
func (u *Usecases) ConfirmRoadmap(ctx context.Context, id uuid.UUID) (RoadmapData, error) {
	roadmap, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return RoadmapData{}, err
	}

	if err := roadmap.ConfirmProposal(); err != nil {
		return RoadmapData{}, err
	}

	if err := u.repo.Save(ctx, roadmap); err != nil {
		return RoadmapData{}, fmt.Errorf("save roadmap: %w", err)
	}

	data := roadmap.ToData()
	if u.events != nil {
		if err := u.events.RoadmapConfirmed(ctx, data); err != nil {
			// Exercise generation is retried downstream; the confirmation
			// itself must not fail because of the bus.
			u.log.Warn("failed to publish roadmap confirmation", "roadmapId", id, "error", err)
		}
	}

	return data, nil
}

// GetRoadmap is a pure read.
func (u *Usecases) GetRoadmap(ctx context.Context, id uuid.UUID) (RoadmapData, error) {
	roadmap, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return RoadmapData{}, err
	}
	return roadmap.ToData(), nil
}

// GetActiveRoadmap returns the user's in-progress conversation, or
// ErrRoadmapNotFound when every roadmap is already confirmed.
func (u *Usecases) GetActiveRoadmap(ctx context.Context, userID uuid.UUID) (RoadmapData, error) {
	roadmap, err := u.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		return RoadmapData{}, err
	}
	return roadmap.ToData(), nil
}

// CompleteMilestone records progress on a confirmed roadmap: the milestone is
// completed and the next LOCKED one opens up.
func (u *Usecases) CompleteMilestone(ctx context.Context, roadmapID, milestoneID uuid.UUID) (RoadmapData, error) {
	roadmap, err := u.repo.FindByID(ctx, roadmapID)
	if err != nil {
		return RoadmapData{}, err
	}

	next, err := roadmap.CompleteMilestone(milestoneID)
	if err != nil {
		return RoadmapData{}, err
	}
	if next == nil {
		u.log.Info("no further milestone to unlock", "roadmapId", roadmapID, "milestoneId", milestoneID)
	}

	if err := u.repo.Save(ctx, roadmap); err != nil {
		return RoadmapData{}, fmt.Errorf("save roadmap: %w", err)
	}

	data := roadmap.ToData()
	if u.events != nil {
		for _, m := range data.Milestones {
			if m.ID == milestoneID {
				if err := u.events.MilestoneCompleted(ctx, data, m); err != nil {
					u.log.Warn("failed to publish milestone completion", "milestoneId", milestoneID, "error", err)
				}
				break
			}
		}
	}

	return data, nil
}
