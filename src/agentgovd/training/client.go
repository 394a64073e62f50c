package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stake-plus/agentgov/src/shared/agents"
)

// Client calls the external training service to turn a blocked trigger
// into a training proposal.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) CreateTrainingProposal(ctx context.Context, blocked *agents.BlockedTriggerContext) (*agents.AgentProposal, error) {
	url := fmt.Sprintf("%s/v1/training/proposals", c.baseURL)

	jsonData, err := json.Marshal(blocked)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("training service returned status %d", resp.StatusCode)
	}

	var proposal agents.AgentProposal
	if err := json.NewDecoder(resp.Body).Decode(&proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ProposalStore persists the proposals a sink produces.
type ProposalStore interface {
	CreateProposal(ctx context.Context, p *agents.AgentProposal) error
}

// NoopSink stands in when no training service is configured. It
// synthesizes a pending training proposal and persists it through the
// proposal store, so a blocked trigger yields a reviewable learning
// signal instead of a silent drop.
type NoopSink struct {
	Proposals ProposalStore
}

func (s NoopSink) CreateTrainingProposal(ctx context.Context, blocked *agents.BlockedTriggerContext) (*agents.AgentProposal, error) {
	log.Printf("training: no service configured, synthesizing local proposal for agent %s", blocked.AgentID)
	p := &agents.AgentProposal{
		ID:           uuid.NewString(),
		AgentID:      blocked.AgentID,
		WorkspaceID:  blocked.WorkspaceID,
		ProposalType: "training",
		Title:        "Training episode for blocked trigger",
		Description:  fmt.Sprintf("Blocked %s trigger: %s", blocked.TriggerSource, blocked.Reason),
		Status:       agents.ProposalPending,
	}
	if s.Proposals != nil {
		if err := s.Proposals.CreateProposal(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}
