package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fluentblocks/fluentblocks-api/internal/logger"
	"github.com/fluentblocks/fluentblocks-api/internal/middleware"
	"github.com/fluentblocks/fluentblocks-api/internal/planner"
)

// Shown for any domain-rule violation. The real reason goes to the log;
// clients never see internal error text.
const genericPlannerError = "Sorry, something went wrong with this conversation. Please start a new one."

type PlannerHandler struct {
	log *logger.Logger
	uc  *planner.Usecases
}

func NewPlannerHandler(uc *planner.Usecases, log *logger.Logger) *PlannerHandler {
	return &PlannerHandler{
		log: log.With("handler", "planner"),
		uc:  uc,
	}
}

type processMessageRequest struct {
	Message   string                `json:"message"`
	RoadmapID *uuid.UUID            `json:"roadmapId"`
	History   []planner.ChatMessage `json:"history"`
}

// ProcessMessage runs one conversation turn. An unknown roadmapId is not an
// error here; the planner starts a fresh conversation instead.
func (h *PlannerHandler) ProcessMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req processMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.uc.ProcessUserMessage(c.UserContext(), planner.ProcessMessageInput{
		UserID:    userID,
		Message:   req.Message,
		RoadmapID: req.RoadmapID,
		History:   req.History,
	})
	if err != nil {
		return h.domainError(c, "process message", err)
	}

	return c.JSON(result)
}

func (h *PlannerHandler) ConfirmRoadmap(c *fiber.Ctx) error {
	roadmapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid roadmap ID",
		})
	}

	data, err := h.uc.ConfirmRoadmap(c.UserContext(), roadmapID)
	if err != nil {
		return h.domainError(c, "confirm roadmap", err)
	}

	return c.JSON(data)
}

func (h *PlannerHandler) GetRoadmap(c *fiber.Ctx) error {
	roadmapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid roadmap ID",
		})
	}

	data, err := h.uc.GetRoadmap(c.UserContext(), roadmapID)
	if err != nil {
		return h.domainError(c, "get roadmap", err)
	}

	return c.JSON(data)
}

// GetActiveRoadmap returns the caller's in-progress conversation, if any.
func (h *PlannerHandler) GetActiveRoadmap(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	data, err := h.uc.GetActiveRoadmap(c.UserContext(), userID)
	if err != nil {
		return h.domainError(c, "get active roadmap", err)
	}

	return c.JSON(data)
}

func (h *PlannerHandler) CompleteMilestone(c *fiber.Ctx) error {
	roadmapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid roadmap ID",
		})
	}

	milestoneID, err := uuid.Parse(c.Params("milestoneId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid milestone ID",
		})
	}

	data, err := h.uc.CompleteMilestone(c.UserContext(), roadmapID, milestoneID)
	if err != nil {
		return h.domainError(c, "complete milestone", err)
	}

	return c.JSON(data)
}

// domainError maps use-case errors onto HTTP statuses. Rule violations are
// 409s with a generic message; anything unrecognized is a 500.
func (h *PlannerHandler) domainError(c *fiber.Ctx, op string, err error) error {
	var transitionErr *planner.InvalidTransitionError
	var statusErr *planner.MilestoneStatusError

	switch {
	case errors.Is(err, planner.ErrRoadmapNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Roadmap not found",
		})
	case errors.Is(err, planner.ErrMilestoneNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Milestone not found",
		})
	case errors.Is(err, planner.ErrEmptyProposal),
		errors.As(err, &transitionErr),
		errors.As(err, &statusErr):
		h.log.Warn("rejected planner request", "op", op, "error", err)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": genericPlannerError,
		})
	default:
		h.log.Error("planner request failed", "op", op, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": genericPlannerError,
		})
	}
}
