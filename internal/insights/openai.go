package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/verdantlabs/canopy-backend/pkg/config"
	"github.com/verdantlabs/canopy-backend/pkg/logger"
)

const (
	salesSystemPrompt = "You are a sales analyst for a licensed cannabis manufacturer. " +
		"Answer the question using only the aggregated sales rows provided. " +
		"Respond with a JSON object: {\"summary\": string}."

	businessSystemPrompt = "You are a business advisor for a licensed cannabis manufacturer. " +
		"Review the operational snapshot and respond with a JSON object: " +
		"{\"insights\": string, \"suggested_actions\": [string], \"warnings\": [string]}."
)

// OpenAIGateway implements Gateway against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIGateway struct {
	cfg    config.InsightsConfig
	client *http.Client
	logg   *logger.Logger
}

// NewOpenAIGateway builds the adapter. The request timeout from config caps
// every call; there is no other cancellation path.
func NewOpenAIGateway(cfg config.InsightsConfig, logg *logger.Logger) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("insights api key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("insights base url is required")
	}
	return &OpenAIGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logg:   logg,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGateway) AnswerSalesQuestion(ctx context.Context, question string, products []ProductSales) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"question": question,
		"products": products,
	})
	if err != nil {
		return "", fmt.Errorf("encoding sales question: %w", err)
	}

	content, err := g.complete(ctx, salesSystemPrompt, string(payload))
	if err != nil {
		return "", err
	}

	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", fmt.Errorf("decoding sales answer: %w", err)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return "", &EmptyResponseError{Operation: "sales question"}
	}
	return parsed.Summary, nil
}

func (g *OpenAIGateway) AnalyzeBusiness(ctx context.Context, snapshot BusinessSnapshot, focus string) (*BusinessAnalysisResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"focus":    focus,
		"snapshot": snapshot,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding business snapshot: %w", err)
	}

	content, err := g.complete(ctx, businessSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var parsed BusinessAnalysisResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decoding business analysis: %w", err)
	}
	if strings.TrimSpace(parsed.Insights) == "" {
		return nil, &EmptyResponseError{Operation: "business analysis"}
	}
	if parsed.SuggestedActions == nil {
		parsed.SuggestedActions = []string{}
	}
	if parsed.Warnings == nil {
		parsed.Warnings = []string{}
	}
	return &parsed, nil
}

func (g *OpenAIGateway) complete(ctx context.Context, systemPrompt, userPayload string) (string, error) {
	reqBody := chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPayload},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	url := strings.TrimRight(g.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling insights gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading insights response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if g.logg != nil {
			g.logg.Warn(g.logg.WithField(ctx, "status", resp.StatusCode), "insights gateway returned non-200")
		}
		return "", fmt.Errorf("insights gateway returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &EmptyResponseError{Operation: "chat completion"}
	}
	return parsed.Choices[0].Message.Content, nil
}
