package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fluentblocks/fluentblocks-api/internal/config"
	"github.com/fluentblocks/fluentblocks-api/internal/logger"
	"github.com/fluentblocks/fluentblocks-api/internal/planner"
)

const plannerSystemPrompt = `You are the FluentBlocks Goal Planner, a friendly language-learning coach.
You help the user turn a vague learning goal into a concrete roadmap of milestones.

Rules:
- While you still need information about the user's goal, ask ONE short follow-up question.
- Once you understand the goal well enough, propose a roadmap of 3 to 6 milestones.
- Each milestone needs an action-oriented title and a 1-2 sentence description.
- If the user asks for changes to a proposal, produce a fully new proposal.

Always answer with a single JSON object in one of these shapes:
  {"type":"QUESTION","text":"..."}
  {"type":"PROPOSAL","data":{"goal":"...","milestones":[{"title":"...","description":"..."}]},"accompanyingMessage":"..."}
Never use any other type value.`

// The user-facing text when the provider misbehaves. Internal detail goes to
// the log, never to the client.
const plannerErrorText = "Lo siento, no pude procesar tu mensaje. ¿Puedes intentarlo de nuevo?"

// OpenAIPlanner implements planner.PlanningService on top of the OpenAI chat
// completions API. Provider failures are normalized to an ERROR response so
// the conversation turn still completes and persists.
type OpenAIPlanner struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIPlanner(cfg *config.Config, log *logger.Logger) (*OpenAIPlanner, error) {
	apiKey := strings.TrimSpace(cfg.OpenAIAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	return &OpenAIPlanner{
		log:        log.With("service", "OpenAIPlanner"),
		baseURL:    strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		apiKey:     apiKey,
		model:      cfg.OpenAIModel,
		httpClient: &http.Client{Timeout: time.Duration(cfg.OpenAITimeoutSeconds) * time.Second},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// nextStepWire mirrors the JSON contract the prompt demands from the model.
type nextStepWire struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Data *struct {
		Goal       string `json:"goal"`
		Milestones []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"milestones"`
	} `json:"data"`
	AccompanyingMessage string `json:"accompanyingMessage"`
}

func (p *OpenAIPlanner) GetNextStep(ctx context.Context, roadmap planner.RoadmapData, history []planner.ChatMessage) (planner.AIResponse, error) {
	snapshot, err := json.Marshal(roadmap)
	if err != nil {
		return planner.AIResponse{}, fmt.Errorf("marshal roadmap snapshot: %w", err)
	}

	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{
		Role:    "system",
		Content: plannerSystemPrompt + "\n\nCurrent roadmap state:\n" + string(snapshot),
	})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	req := chatCompletionRequest{Model: p.model, Messages: messages}
	req.ResponseFormat.Type = "json_object"

	raw, err := p.post(ctx, "/v1/chat/completions", req)
	if err != nil {
		// A canceled context is the caller's problem; everything else is the
		// provider's and becomes a normal ERROR answer.
		if ctx.Err() != nil {
			return planner.AIResponse{}, ctx.Err()
		}
		p.log.Warn("planning request failed", "error", err)
		return planner.ServiceError(plannerErrorText), nil
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil || len(completion.Choices) == 0 {
		p.log.Warn("unexpected completion payload", "error", err)
		return planner.ServiceError(plannerErrorText), nil
	}

	return p.parseNextStep(completion.Choices[0].Message.Content), nil
}

// parseNextStep turns the model's JSON answer into a typed response. Anything
// off-contract degrades to ERROR rather than failing the turn.
func (p *OpenAIPlanner) parseNextStep(content string) planner.AIResponse {
	var wire nextStepWire
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		p.log.Warn("model returned malformed JSON", "error", err)
		return planner.ServiceError(plannerErrorText)
	}

	switch planner.AIResponseType(wire.Type) {
	case planner.ResponseQuestion:
		if wire.Text == "" {
			p.log.Warn("QUESTION answer without text")
			return planner.ServiceError(plannerErrorText)
		}
		return planner.Question(wire.Text)

	case planner.ResponseProposal:
		if wire.Data == nil || len(wire.Data.Milestones) == 0 {
			p.log.Warn("PROPOSAL answer without milestones")
			return planner.ServiceError(plannerErrorText)
		}
		data := planner.ProposalData{Goal: wire.Data.Goal}
		for _, m := range wire.Data.Milestones {
			if m.Title == "" || m.Description == "" {
				p.log.Warn("PROPOSAL milestone missing title or description")
				return planner.ServiceError(plannerErrorText)
			}
			data.Milestones = append(data.Milestones, planner.MilestoneDraft{
				Title:       m.Title,
				Description: m.Description,
			})
		}
		return planner.Proposal(data, wire.AccompanyingMessage)

	case planner.ResponseError:
		if wire.Text == "" {
			return planner.ServiceError(plannerErrorText)
		}
		return planner.ServiceError(wire.Text)

	default:
		p.log.Warn("model returned unknown response type", "type", wire.Type)
		return planner.ServiceError(plannerErrorText)
	}
}

func (p *OpenAIPlanner) post(ctx context.Context, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("openai http " + resp.Status + ": " + string(raw))
	}
	return raw, nil
}
