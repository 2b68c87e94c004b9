// ABOUTME: Mock Backend implementation for credential-less deployments and tests
// ABOUTME: Deterministic responses, never makes a network call

package provider

import (
	"context"
	"fmt"
	"hash/fnv"
)

// Mock is a deterministic Backend used when no provider credential is
// configured. Agent IDs are derived from a hash of the agent name, so
// repeated runs produce the same identifier for the same spec.
type Mock struct {
	// Confidence is returned by every Chat call. Tests set it to steer the
	// escalation branch.
	Confidence float64
}

// NewMock creates a Mock with the default chat confidence of 0.85.
func NewMock() *Mock {
	return &Mock{Confidence: 0.85}
}

// CreateAgent returns a deterministic identifier derived from the agent name.
func (m *Mock) CreateAgent(ctx context.Context, spec AgentSpec) (string, error) {
	return mockAgentID(spec.Name), nil
}

// UpdateAgent echoes the provider identifier back unchanged.
func (m *Mock) UpdateAgent(ctx context.Context, agentID string, spec AgentSpec) (string, error) {
	return agentID, nil
}

// DeleteAgent always succeeds.
func (m *Mock) DeleteAgent(ctx context.Context, agentID string) error {
	return nil
}

// Chat returns a canned acknowledgement with the configured confidence.
func (m *Mock) Chat(ctx context.Context, agentID, message string) (*ChatResult, error) {
	return &ChatResult{
		Response:   fmt.Sprintf("Thank you for your message: %q. This is a mock response from the support agent.", message),
		Confidence: clampConfidence(m.Confidence),
	}, nil
}

// GetAnalytics returns a fixed analytics snapshot.
func (m *Mock) GetAnalytics(ctx context.Context, agentID string) (*Analytics, error) {
	return &Analytics{
		TotalConversations: 150,
		AverageConfidence:  0.82,
		TicketsCreated:     12,
		UserSatisfaction:   4.5,
		ResponseTimeAvg:    2.3,
	}, nil
}

func mockAgentID(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("lyzr_agent_%04d", h.Sum32()%10000)
}
