// ABOUTME: Analytics aggregator - overview stats from local stores plus per-agent provider proxy
// ABOUTME: Overview rounds average confidence to 2 decimals and never divides by zero

package analytics

import (
	"context"
	"log/slog"
	"math"

	"github.com/lyzr/support-gateway/internal/provider"
	"github.com/lyzr/support-gateway/internal/store"
)

// Store defines what the aggregator needs from storage.
type Store interface {
	GetAgent(ctx context.Context, id string) (*store.Agent, error)
	Overview(ctx context.Context) (*store.Overview, error)
}

// Service derives summary statistics from stored conversations and tickets
// and proxies per-agent analytics from the provider.
type Service struct {
	store    Store
	provider provider.Backend
	logger   *slog.Logger
}

// New creates an analytics Service.
func New(s Store, backend provider.Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		provider: backend,
		logger:   logger.With("component", "analytics"),
	}
}

// Overview is the cross-agent summary reported to the dashboard.
type Overview struct {
	TotalAgents       int
	TotalChats        int
	TotalTickets      int
	OpenTickets       int
	AverageConfidence float64
	ActiveAgents      int
}

// Overview returns aggregate statistics. With zero conversations the average
// confidence is 0.0, not an error.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	o, err := s.store.Overview(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{
		TotalAgents:       o.TotalAgents,
		TotalChats:        o.TotalConversations,
		TotalTickets:      o.TotalTickets,
		OpenTickets:       o.OpenTickets,
		AverageConfidence: math.Round(o.AverageConfidence*100) / 100,
		ActiveAgents:      o.ActiveAgents,
	}, nil
}

// AgentAnalytics verifies the agent exists locally, then proxies the
// provider's analytics snapshot unblended: no local conversation-log
// statistics are mixed in.
func (s *Service) AgentAnalytics(ctx context.Context, agentID string) (*provider.Analytics, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	remoteID := agent.RemoteID
	if remoteID == "" {
		remoteID = agent.ID
	}
	return s.provider.GetAnalytics(ctx, remoteID)
}
