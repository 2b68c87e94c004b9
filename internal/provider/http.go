// ABOUTME: HTTPBackend implements Backend against the real provider REST API
// ABOUTME: Bearer-authenticated JSON calls with a fixed timeout and no retries

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultBaseURL is the provider endpoint used when none is configured.
const DefaultBaseURL = "https://api.lyzr.ai"

// callTimeout caps every provider call. A call that exceeds it fails with
// ErrUnavailable; there are no retries.
const callTimeout = 30 * time.Second

// HTTPBackend talks to the provider over HTTP with a bearer credential.
type HTTPBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPBackend creates a backend for the given base URL and credential.
// An empty baseURL falls back to DefaultBaseURL.
func NewHTTPBackend(baseURL, apiKey string) *HTTPBackend {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPBackend{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: callTimeout},
		logger:  slog.Default().With("component", "provider"),
	}
}

// createAgentPayload is the wire shape for agent create/update calls.
type createAgentPayload struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Tone          string         `json:"tone"`
	Personality   string         `json:"personality"`
	KnowledgeBase []string       `json:"knowledge_base"`
	Settings      *agentSettings `json:"settings,omitempty"`
}

type agentSettings struct {
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	FallbackThreshold float64 `json:"fallback_threshold"`
}

type agentResponse struct {
	ID string `json:"id"`
}

type chatPayload struct {
	AgentID string            `json:"agent_id"`
	Message string            `json:"message"`
	Context map[string]string `json:"context"`
}

type chatResponse struct {
	Response        string   `json:"response"`
	ConfidenceScore *float64 `json:"confidence_score"`
}

type analyticsResponse struct {
	TotalConversations int     `json:"total_conversations"`
	AverageConfidence  float64 `json:"average_confidence"`
	TicketsCreated     int     `json:"tickets_created"`
	UserSatisfaction   float64 `json:"user_satisfaction"`
	ResponseTimeAvg    float64 `json:"response_time_avg"`
}

// CreateAgent registers an agent with the provider.
func (b *HTTPBackend) CreateAgent(ctx context.Context, spec AgentSpec) (string, error) {
	payload := createAgentPayload{
		Name:          spec.Name,
		Description:   spec.Description,
		Tone:          spec.Tone,
		Personality:   spec.Personality,
		KnowledgeBase: spec.KnowledgeBase,
		Settings: &agentSettings{
			Temperature:       0.7,
			MaxTokens:         1000,
			FallbackThreshold: 0.7,
		},
	}

	var resp agentResponse
	if err := b.do(ctx, http.MethodPost, "/agents", payload, &resp); err != nil {
		return "", err
	}

	b.logger.Debug("provider agent created", "remote_id", resp.ID)
	return resp.ID, nil
}

// UpdateAgent pushes a new spec for an existing provider agent.
func (b *HTTPBackend) UpdateAgent(ctx context.Context, agentID string, spec AgentSpec) (string, error) {
	payload := createAgentPayload{
		Name:          spec.Name,
		Description:   spec.Description,
		Tone:          spec.Tone,
		Personality:   spec.Personality,
		KnowledgeBase: spec.KnowledgeBase,
	}

	var resp agentResponse
	if err := b.do(ctx, http.MethodPut, "/agents/"+agentID, payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteAgent removes the agent on the provider side.
func (b *HTTPBackend) DeleteAgent(ctx context.Context, agentID string) error {
	return b.do(ctx, http.MethodDelete, "/agents/"+agentID, nil, nil)
}

// Chat sends one message to the agent. A missing confidence score defaults
// to 0 and any score is clamped to [0, 1] before it reaches the caller.
func (b *HTTPBackend) Chat(ctx context.Context, agentID, message string) (*ChatResult, error) {
	payload := chatPayload{
		AgentID: agentID,
		Message: message,
		Context: map[string]string{},
	}

	var resp chatResponse
	if err := b.do(ctx, http.MethodPost, "/chat", payload, &resp); err != nil {
		return nil, err
	}

	result := &ChatResult{Response: resp.Response}
	if resp.ConfidenceScore != nil {
		result.Confidence = clampConfidence(*resp.ConfidenceScore)
	}
	return result, nil
}

// GetAnalytics fetches the provider analytics snapshot for the agent.
func (b *HTTPBackend) GetAnalytics(ctx context.Context, agentID string) (*Analytics, error) {
	var resp analyticsResponse
	if err := b.do(ctx, http.MethodGet, "/agents/"+agentID+"/analytics", nil, &resp); err != nil {
		return nil, err
	}
	return &Analytics{
		TotalConversations: resp.TotalConversations,
		AverageConfidence:  resp.AverageConfidence,
		TicketsCreated:     resp.TicketsCreated,
		UserSatisfaction:   resp.UserSatisfaction,
		ResponseTimeAvg:    resp.ResponseTimeAvg,
	}, nil
}

// do performs one provider call. A non-2xx response becomes *Error carrying
// the upstream status and raw body; a transport failure wraps ErrUnavailable.
func (b *HTTPBackend) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &Error{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
