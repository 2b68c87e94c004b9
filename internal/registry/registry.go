// ABOUTME: Agent registry - local agent records and their provider-side twins
// ABOUTME: Provider-first create with compensating cleanup; delete never blocks on the provider

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lyzr/support-gateway/internal/provider"
	"github.com/lyzr/support-gateway/internal/store"
)

// Store defines what the registry needs from storage.
type Store interface {
	CreateAgent(ctx context.Context, agent *store.Agent) error
	GetAgent(ctx context.Context, id string) (*store.Agent, error)
	ListAgents(ctx context.Context, userID string) ([]*store.Agent, error)
	UpdateAgent(ctx context.Context, agent *store.Agent) error
	DeleteAgent(ctx context.Context, id string) error
}

// Service owns agent records and keeps them paired with their provider-side
// representation.
type Service struct {
	store    Store
	provider provider.Backend
	logger   *slog.Logger
}

// New creates a registry Service.
func New(s Store, backend provider.Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		provider: backend,
		logger:   logger.With("component", "registry"),
	}
}

// Create registers the agent with the provider first and persists the local
// record only after the provider call succeeds, so a failed provider create
// leaves no local state. If local persistence fails after the provider
// succeeded, the provider-side agent is deleted best-effort so we don't
// silently leave an orphan behind.
func (s *Service) Create(ctx context.Context, spec provider.AgentSpec, userID string) (*store.Agent, error) {
	remoteID, err := s.provider.CreateAgent(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("provider create failed: %w", err)
	}

	now := time.Now()
	agent := &store.Agent{
		Name:          spec.Name,
		Description:   spec.Description,
		Tone:          spec.Tone,
		Personality:   spec.Personality,
		KnowledgeBase: spec.KnowledgeBase,
		RemoteID:      remoteID,
		UserID:        userID,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateAgent(ctx, agent); err != nil {
		if cleanupErr := s.provider.DeleteAgent(ctx, remoteID); cleanupErr != nil {
			s.logger.Warn("orphaned provider agent: cleanup failed after local persist error",
				"remote_id", remoteID, "error", cleanupErr)
		}
		return nil, fmt.Errorf("persisting agent: %w", err)
	}

	s.logger.Info("agent created", "id", agent.ID, "remote_id", remoteID, "user_id", userID)
	return agent, nil
}

// List returns agents in insertion order, filtered by owner when userID is
// non-empty.
func (s *Service) List(ctx context.Context, userID string) ([]*store.Agent, error) {
	return s.store.ListAgents(ctx, userID)
}

// Get returns the agent or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*store.Agent, error) {
	return s.store.GetAgent(ctx, id)
}

// Update pushes the new spec to the provider, then overwrites the local
// record. The provider call uses the stored remote identifier, falling back
// to the local one if the provider never issued an identifier. A provider
// failure leaves the local record unchanged.
func (s *Service) Update(ctx context.Context, id string, spec provider.AgentSpec) (*store.Agent, error) {
	agent, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}

	remoteID := agent.RemoteID
	if remoteID == "" {
		remoteID = agent.ID
	}
	newRemoteID, err := s.provider.UpdateAgent(ctx, remoteID, spec)
	if err != nil {
		return nil, fmt.Errorf("provider update failed: %w", err)
	}

	agent.Name = spec.Name
	agent.Description = spec.Description
	agent.Tone = spec.Tone
	agent.Personality = spec.Personality
	agent.KnowledgeBase = spec.KnowledgeBase
	agent.RemoteID = newRemoteID
	agent.UpdatedAt = time.Now()

	if err := s.store.UpdateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("persisting agent update: %w", err)
	}

	s.logger.Info("agent updated", "id", agent.ID, "remote_id", newRemoteID)
	return agent, nil
}

// Delete removes the local record. The provider-side agent is deleted first
// when a remote identifier exists, but a provider failure never blocks the
// local delete - the two stores are allowed to diverge here.
func (s *Service) Delete(ctx context.Context, id string) error {
	agent, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return err
	}

	if agent.RemoteID != "" {
		if err := s.provider.DeleteAgent(ctx, agent.RemoteID); err != nil {
			s.logger.Warn("provider delete failed, removing local record anyway",
				"id", id, "remote_id", agent.RemoteID, "error", err)
		}
	}

	if err := s.store.DeleteAgent(ctx, id); err != nil {
		return fmt.Errorf("deleting agent: %w", err)
	}

	s.logger.Info("agent deleted", "id", id)
	return nil
}
