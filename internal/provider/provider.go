// ABOUTME: Backend interface and data types for the Lyzr conversational-AI provider
// ABOUTME: Defines AgentSpec, ChatResult, Analytics and the provider error taxonomy

package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the provider cannot be reached at the
// transport level (timeout, connection refused, DNS failure).
var ErrUnavailable = errors.New("provider unavailable")

// Error is returned when the provider responds with a non-2xx status.
// It carries the upstream status code and raw body so callers can propagate
// them unchanged.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// AgentSpec describes an agent to the provider.
type AgentSpec struct {
	Name          string
	Description   string
	Tone          string
	Personality   string
	KnowledgeBase []string
}

// ChatResult is the provider's answer to a chat message. Confidence is
// clamped to [0, 1] at this boundary; a score the provider omitted is 0.
type ChatResult struct {
	Response   string
	Confidence float64
}

// Analytics is the provider-side analytics snapshot for one agent.
type Analytics struct {
	TotalConversations int
	AverageConfidence  float64
	TicketsCreated     int
	UserSatisfaction   float64
	ResponseTimeAvg    float64
}

// Backend is the outbound contract to the conversational-AI provider. The
// implementation is selected once at startup: HTTPBackend when a credential
// is configured, Mock otherwise. No call blocks longer than the configured
// timeout, and no call is retried.
type Backend interface {
	// CreateAgent registers an agent with the provider and returns its
	// provider-side identifier.
	CreateAgent(ctx context.Context, spec AgentSpec) (string, error)

	// UpdateAgent pushes a new spec for an existing provider agent and
	// returns the (possibly re-issued) provider-side identifier.
	UpdateAgent(ctx context.Context, agentID string, spec AgentSpec) (string, error)

	// DeleteAgent removes the agent on the provider side.
	DeleteAgent(ctx context.Context, agentID string) error

	// Chat sends one message to the agent and returns its response.
	Chat(ctx context.Context, agentID, message string) (*ChatResult, error)

	// GetAnalytics fetches the provider's analytics snapshot for the agent.
	GetAnalytics(ctx context.Context, agentID string) (*Analytics, error)
}

// clampConfidence forces a provider-supplied score into [0, 1]. Upstream
// floats drive the escalation threshold, so out-of-range values are never
// allowed past this package.
func clampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
