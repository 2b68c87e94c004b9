// ABOUTME: Tests for the agent registry service
// ABOUTME: Covers provider-first create, compensating cleanup, and delete divergence

package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/support-gateway/internal/provider"
	"github.com/lyzr/support-gateway/internal/store"
)

var errProviderDown = errors.New("provider down")

// stubBackend lets each call site fail independently and records delete calls.
type stubBackend struct {
	*provider.Mock

	createErr error
	updateErr error
	deleteErr error

	deleted []string
}

func newStubBackend() *stubBackend {
	return &stubBackend{Mock: provider.NewMock()}
}

func (s *stubBackend) CreateAgent(ctx context.Context, spec provider.AgentSpec) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.Mock.CreateAgent(ctx, spec)
}

func (s *stubBackend) UpdateAgent(ctx context.Context, agentID string, spec provider.AgentSpec) (string, error) {
	if s.updateErr != nil {
		return "", s.updateErr
	}
	return s.Mock.UpdateAgent(ctx, agentID, spec)
}

func (s *stubBackend) DeleteAgent(ctx context.Context, agentID string) error {
	s.deleted = append(s.deleted, agentID)
	return s.deleteErr
}

func testSpec() provider.AgentSpec {
	return provider.AgentSpec{
		Name:          "billing-bot",
		Description:   "answers billing questions",
		Tone:          "friendly",
		Personality:   "patient",
		KnowledgeBase: []string{"refund policy"},
	}
}

func TestCreate(t *testing.T) {
	s := store.NewMemoryStore()
	svc := New(s, newStubBackend(), nil)

	ctx := context.Background()
	agent, err := svc.Create(ctx, testSpec(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "agent_0001", agent.ID)
	assert.Equal(t, "billing-bot", agent.Name)
	assert.NotEmpty(t, agent.RemoteID)
	assert.Equal(t, "user-1", agent.UserID)
	assert.True(t, agent.IsActive)
	assert.False(t, agent.CreatedAt.IsZero())

	stored, err := s.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, agent.RemoteID, stored.RemoteID)
}

func TestCreate_ProviderFailureLeavesNoLocalState(t *testing.T) {
	s := store.NewMemoryStore()
	backend := newStubBackend()
	backend.createErr = errProviderDown
	svc := New(s, backend, nil)

	ctx := context.Background()
	_, err := svc.Create(ctx, testSpec(), "user-1")
	assert.ErrorIs(t, err, errProviderDown)

	agents, err := s.ListAgents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, agents)
}

// failCreateStore rejects agent persistence so the compensating provider
// delete path can be exercised.
type failCreateStore struct {
	*store.MemoryStore
}

var errDiskFull = errors.New("disk full")

func (f *failCreateStore) CreateAgent(ctx context.Context, agent *store.Agent) error {
	return errDiskFull
}

func TestCreate_PersistFailureCleansUpProviderAgent(t *testing.T) {
	backend := newStubBackend()
	svc := New(&failCreateStore{store.NewMemoryStore()}, backend, nil)

	_, err := svc.Create(context.Background(), testSpec(), "user-1")
	assert.ErrorIs(t, err, errDiskFull)

	require.Len(t, backend.deleted, 1)
	assert.Equal(t, backend.deleted[0], mustMockID(t, "billing-bot"))
}

func mustMockID(t *testing.T, name string) string {
	t.Helper()
	id, err := provider.NewMock().CreateAgent(context.Background(), provider.AgentSpec{Name: name})
	require.NoError(t, err)
	return id
}

func TestUpdate(t *testing.T) {
	s := store.NewMemoryStore()
	svc := New(s, newStubBackend(), nil)

	ctx := context.Background()
	agent, err := svc.Create(ctx, testSpec(), "user-1")
	require.NoError(t, err)

	spec := testSpec()
	spec.Name = "billing-bot-v2"
	spec.Tone = "formal"
	updated, err := svc.Update(ctx, agent.ID, spec)
	require.NoError(t, err)

	assert.Equal(t, agent.ID, updated.ID)
	assert.Equal(t, "billing-bot-v2", updated.Name)
	assert.Equal(t, "formal", updated.Tone)
	assert.True(t, updated.UpdatedAt.After(agent.UpdatedAt) || updated.UpdatedAt.Equal(agent.UpdatedAt))

	stored, err := s.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing-bot-v2", stored.Name)
}

func TestUpdate_ProviderFailureLeavesLocalUnchanged(t *testing.T) {
	s := store.NewMemoryStore()
	backend := newStubBackend()
	svc := New(s, backend, nil)

	ctx := context.Background()
	agent, err := svc.Create(ctx, testSpec(), "user-1")
	require.NoError(t, err)

	backend.updateErr = errProviderDown
	spec := testSpec()
	spec.Name = "should-not-apply"
	_, err = svc.Update(ctx, agent.ID, spec)
	assert.ErrorIs(t, err, errProviderDown)

	stored, err := s.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing-bot", stored.Name)
}

func TestUpdate_UnknownAgent(t *testing.T) {
	svc := New(store.NewMemoryStore(), newStubBackend(), nil)
	_, err := svc.Update(context.Background(), "agent_9999", testSpec())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := store.NewMemoryStore()
	backend := newStubBackend()
	svc := New(s, backend, nil)

	ctx := context.Background()
	agent, err := svc.Create(ctx, testSpec(), "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, agent.ID))

	_, err = s.GetAgent(ctx, agent.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, backend.deleted, agent.RemoteID)
}

func TestDelete_ProviderFailureStillRemovesLocal(t *testing.T) {
	s := store.NewMemoryStore()
	backend := newStubBackend()
	svc := New(s, backend, nil)

	ctx := context.Background()
	agent, err := svc.Create(ctx, testSpec(), "user-1")
	require.NoError(t, err)

	backend.deleteErr = errProviderDown
	require.NoError(t, svc.Delete(ctx, agent.ID))

	_, err = s.GetAgent(ctx, agent.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_NoRemoteIDSkipsProvider(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	agent := &store.Agent{Name: "local-only", UserID: "u", IsActive: true}
	require.NoError(t, s.CreateAgent(ctx, agent))

	backend := newStubBackend()
	svc := New(s, backend, nil)
	require.NoError(t, svc.Delete(ctx, agent.ID))
	assert.Empty(t, backend.deleted)
}

func TestDelete_UnknownAgent(t *testing.T) {
	svc := New(store.NewMemoryStore(), newStubBackend(), nil)
	err := svc.Delete(context.Background(), "agent_9999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestList_FiltersByUser(t *testing.T) {
	s := store.NewMemoryStore()
	svc := New(s, newStubBackend(), nil)

	ctx := context.Background()
	_, err := svc.Create(ctx, testSpec(), "user-1")
	require.NoError(t, err)
	spec := testSpec()
	spec.Name = "other"
	_, err = svc.Create(ctx, spec, "user-2")
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "billing-bot", mine[0].Name)
}
