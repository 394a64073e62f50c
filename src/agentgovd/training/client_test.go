package training

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stake-plus/agentgov/src/shared/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProposals struct {
	created []*agents.AgentProposal
}

func (m *memProposals) CreateProposal(_ context.Context, p *agents.AgentProposal) error {
	m.created = append(m.created, p)
	return nil
}

func blockedFixture() *agents.BlockedTriggerContext {
	return &agents.BlockedTriggerContext{
		ID:            "b-1",
		AgentID:       "a-1",
		WorkspaceID:   "ws-1",
		TriggerSource: string(agents.SourceWorkflowEngine),
		Reason:        "automated trigger blocked: student agents train before acting",
	}
}

func TestNoopSinkPersistsSynthesizedProposal(t *testing.T) {
	store := &memProposals{}
	sink := NoopSink{Proposals: store}

	p, err := sink.CreateTrainingProposal(context.Background(), blockedFixture())
	require.NoError(t, err)

	// The returned proposal is the persisted row, not a dangling id.
	require.Len(t, store.created, 1)
	assert.Equal(t, store.created[0].ID, p.ID)
	assert.Equal(t, "a-1", p.AgentID)
	assert.Equal(t, "ws-1", p.WorkspaceID)
	assert.Equal(t, agents.ProposalPending, p.Status)
	assert.Contains(t, p.Description, "workflow_engine")
}

func TestClientPostsBlockedContext(t *testing.T) {
	var got agents.BlockedTriggerContext
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/training/proposals", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(agents.AgentProposal{
			ID:      "p-1",
			AgentID: got.AgentID,
			Status:  agents.ProposalPending,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token-1")
	p, err := client.CreateTrainingProposal(context.Background(), blockedFixture())
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "a-1", got.AgentID)
}

func TestClientRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.CreateTrainingProposal(context.Background(), blockedFixture())
	assert.Error(t, err)
}
