package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/risknet/internal/domain/intel"
	"github.com/bryanwahyu/risknet/internal/infra/intel/prompt"
)

const maxTokens = 2048

// Client implements intel.Gatherer on the OpenAI chat API.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// response mirrors the JSON schema the system prompt mandates.
type response struct {
	Summary        string   `json:"summary"`
	RiskIndicators []string `json:"risk_indicators"`
	Sentiment      float64  `json:"sentiment"`
	Confidence     float64  `json:"confidence"`
	KeyFindings    []string `json:"key_findings"`
}

func (c *Client) Gather(ctx context.Context, subjects []intel.EntitySummary) (*intel.Result, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(subjects)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", intel.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", intel.ErrUnavailable)
	}

	var parsed response
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed completion: %v", intel.ErrUnavailable, err)
	}
	return &intel.Result{
		Summary:        parsed.Summary,
		RiskIndicators: normalizeIndicators(parsed.RiskIndicators),
		Sentiment:      clampRange(parsed.Sentiment, -1, 1),
		Confidence:     clampRange(parsed.Confidence, 0, 1),
		KeyFindings:    parsed.KeyFindings,
		Provider:       "openai/" + model,
	}, nil
}

// normalizeIndicators drops anything outside the known taxonomy so a chatty
// model cannot invent categories downstream code keys on.
func normalizeIndicators(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, ind := range in {
		ind = strings.ToLower(strings.TrimSpace(ind))
		if _, ok := prompt.RiskKeywords[ind]; ok && !seen[ind] {
			out = append(out, ind)
			seen[ind] = true
		}
	}
	return out
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
