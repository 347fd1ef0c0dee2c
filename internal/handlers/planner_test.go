package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentblocks/fluentblocks-api/internal/config"
	"github.com/fluentblocks/fluentblocks-api/internal/logger"
	"github.com/fluentblocks/fluentblocks-api/internal/middleware"
	"github.com/fluentblocks/fluentblocks-api/internal/planner"
	"github.com/fluentblocks/fluentblocks-api/internal/storage"
)

type stubPlanningService struct {
	response planner.AIResponse
}

func (s *stubPlanningService) GetNextStep(ctx context.Context, roadmap planner.RoadmapData, history []planner.ChatMessage) (planner.AIResponse, error) {
	return s.response, nil
}

type testEnv struct {
	app   *fiber.App
	repo  *storage.MemoryRoadmapRepository
	ai    *stubPlanningService
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{JWTSecret: "test-secret"}
	repo := storage.NewMemoryRoadmapRepository()
	ai := &stubPlanningService{response: planner.Question("¿Cuál es tu objetivo?")}
	uc := planner.NewUsecases(repo, ai, nil, logger.NewNop())

	app := fiber.New()
	api := app.Group("/api", middleware.Protected(cfg.JWTSecret))

	h := NewPlannerHandler(uc, logger.NewNop())
	api.Post("/planner/messages", h.ProcessMessage)
	api.Get("/planner/roadmaps/active", h.GetActiveRoadmap)
	api.Get("/planner/roadmaps/:id", h.GetRoadmap)
	api.Post("/planner/roadmaps/:id/confirm", h.ConfirmRoadmap)
	api.Post("/planner/roadmaps/:id/milestones/:milestoneId/complete", h.CompleteMilestone)

	token, err := middleware.GenerateToken(cfg.JWTSecret, uuid.New(), "learner@example.com")
	require.NoError(t, err)

	return &testEnv{app: app, repo: repo, ai: ai, token: token}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestProcessMessage_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/planner/messages", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProcessMessage_StartsConversation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/planner/messages", fiber.Map{
		"message": "quiero viajar",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result planner.ProcessMessageResult
	decodeBody(t, resp, &result)

	assert.Equal(t, planner.ResponseQuestion, result.Response.Type)
	assert.Equal(t, planner.StateGatheringDetails, result.Roadmap.ConversationState)
	assert.Equal(t, "quiero viajar", result.Roadmap.Goal.Text)

	// The roadmap is retrievable afterwards
	resp = env.request(t, http.MethodGet, "/api/planner/roadmaps/"+result.Roadmap.ID.String(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetRoadmap_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/planner/roadmaps/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRoadmap_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/planner/roadmaps/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func proposalResponse() planner.AIResponse {
	return planner.Proposal(planner.ProposalData{
		Goal: "quiero viajar",
		Milestones: []planner.MilestoneDraft{
			{Title: "Saludos", Description: "Saluda y preséntate."},
			{Title: "Direcciones", Description: "Pide y entiende direcciones."},
		},
	}, "¡Aquí tienes tu plan!")
}

func TestConfirmRoadmap_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	env.ai.response = proposalResponse()

	resp := env.request(t, http.MethodPost, "/api/planner/messages", fiber.Map{
		"message": "quiero viajar",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result planner.ProcessMessageResult
	decodeBody(t, resp, &result)
	require.Equal(t, planner.StateProposalGenerated, result.Roadmap.ConversationState)

	confirmPath := fmt.Sprintf("/api/planner/roadmaps/%s/confirm", result.Roadmap.ID)
	resp = env.request(t, http.MethodPost, confirmPath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var confirmed planner.RoadmapData
	decodeBody(t, resp, &confirmed)
	assert.Equal(t, planner.StateCompleted, confirmed.ConversationState)
	assert.Equal(t, planner.MilestoneUnlocked, confirmed.Milestones[0].Status)

	// Confirming again is a conflict with a generic message
	resp = env.request(t, http.MethodPost, confirmPath, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, genericPlannerError, body["error"])
}

func TestCompleteMilestone_Endpoint(t *testing.T) {
	env := newTestEnv(t)
	env.ai.response = proposalResponse()

	resp := env.request(t, http.MethodPost, "/api/planner/messages", fiber.Map{
		"message": "quiero viajar",
	})
	var result planner.ProcessMessageResult
	decodeBody(t, resp, &result)

	confirmPath := fmt.Sprintf("/api/planner/roadmaps/%s/confirm", result.Roadmap.ID)
	resp = env.request(t, http.MethodPost, confirmPath, nil)
	var confirmed planner.RoadmapData
	decodeBody(t, resp, &confirmed)

	completePath := fmt.Sprintf("/api/planner/roadmaps/%s/milestones/%s/complete",
		confirmed.ID, confirmed.Milestones[0].ID)
	resp = env.request(t, http.MethodPost, completePath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated planner.RoadmapData
	decodeBody(t, resp, &updated)
	assert.Equal(t, planner.MilestoneCompleted, updated.Milestones[0].Status)
	assert.Equal(t, planner.MilestoneUnlocked, updated.Milestones[1].Status)

	// Completing the same milestone twice is a conflict
	repeatPath := fmt.Sprintf("/api/planner/roadmaps/%s/milestones/%s/complete",
		confirmed.ID, confirmed.Milestones[0].ID)
	resp = env.request(t, http.MethodPost, repeatPath, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetActiveRoadmap_Endpoint(t *testing.T) {
	env := newTestEnv(t)

	// Nothing active yet
	resp := env.request(t, http.MethodGet, "/api/planner/roadmaps/active", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/planner/messages", fiber.Map{
		"message": "quiero viajar",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result planner.ProcessMessageResult
	decodeBody(t, resp, &result)

	resp = env.request(t, http.MethodGet, "/api/planner/roadmaps/active", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var active planner.RoadmapData
	decodeBody(t, resp, &active)
	assert.Equal(t, result.Roadmap.ID, active.ID)
}
