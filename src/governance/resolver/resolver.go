package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/stake-plus/agentgov/src/governance/ledger"
	"github.com/stake-plus/agentgov/src/shared/agents"
)

const (
	defaultAgentName     = "Chat Assistant"
	defaultAgentCategory = "system"
)

// AgentStore is the slice of the record store the resolver needs.
type AgentStore interface {
	GetAgent(ctx context.Context, id string) (*agents.Agent, error)
	CreateAgent(ctx context.Context, a *agents.Agent) error
	FindAgentByNameCategory(ctx context.Context, name, category string) (*agents.Agent, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, id string) (*agents.Session, error)
	SaveSession(ctx context.Context, sess *agents.Session) error
}

// ActionValidator is the governance check the resolver delegates to, kept
// behind an interface so resolution never imports governance wiring.
type ActionValidator interface {
	CanPerformAction(ctx context.Context, agentID, action string, requireApprovalOverride *bool) (ledger.ActionCheck, error)
}

// ResolutionContext describes how one resolve call found (or failed to
// find) its agent. Observability only, never persisted as primary state.
type ResolutionContext struct {
	UserID           string    `json:"userId"`
	SessionID        string    `json:"sessionId,omitempty"`
	RequestedAgentID string    `json:"requestedAgentId,omitempty"`
	ActionType       string    `json:"actionType"`
	ResolvedAgentID  string    `json:"resolvedAgentId,omitempty"`
	ResolutionPath   []string  `json:"resolutionPath"`
	ResolvedAt       time.Time `json:"resolvedAt"`
}

// Resolver walks the explicit-id / session / system-default fallback chain.
type Resolver struct {
	agents    AgentStore
	sessions  SessionStore
	validator ActionValidator
}

type Config struct {
	Agents    AgentStore
	Sessions  SessionStore
	Validator ActionValidator
}

func New(cfg Config) *Resolver {
	return &Resolver{
		agents:    cfg.Agents,
		sessions:  cfg.Sessions,
		validator: cfg.Validator,
	}
}

// Resolve finds the agent a request is about. An explicit requested id that
// does not resolve is a hard failure; misses while walking the session leg
// of the chain are absorbed and the chain continues. With no usable input
// the system-default agent is created once and reused forever after.
func (r *Resolver) Resolve(ctx context.Context, userID, sessionID, requestedAgentID, actionType string) (*agents.Agent, *ResolutionContext, error) {
	if actionType == "" {
		actionType = "chat"
	}
	rc := &ResolutionContext{
		UserID:           userID,
		SessionID:        sessionID,
		RequestedAgentID: requestedAgentID,
		ActionType:       actionType,
		ResolvedAt:       time.Now(),
	}

	// 1. Explicit agent id: no silent substitution on a miss.
	if requestedAgentID != "" {
		a, err := r.agents.GetAgent(ctx, requestedAgentID)
		if err != nil {
			rc.ResolutionPath = append(rc.ResolutionPath, "explicit_agent_not_found")
			return nil, rc, fmt.Errorf("requested agent %s: %w", requestedAgentID, err)
		}
		rc.ResolutionPath = append(rc.ResolutionPath, "explicit_agent_id")
		rc.ResolvedAgentID = a.ID
		return a, rc, nil
	}

	// 2. Session-pinned agent: stale links fall through, they do not fail.
	if sessionID != "" {
		sess, err := r.sessions.GetSession(ctx, sessionID)
		switch {
		case err != nil:
			rc.ResolutionPath = append(rc.ResolutionPath, "session_not_found")
		case sess.AgentID == "":
			rc.ResolutionPath = append(rc.ResolutionPath, "no_session_agent")
		default:
			a, err := r.agents.GetAgent(ctx, sess.AgentID)
			if err != nil {
				log.Printf("resolver: session %s points at missing agent %s", sessionID, sess.AgentID)
				rc.ResolutionPath = append(rc.ResolutionPath, "session_agent_not_found")
			} else {
				rc.ResolutionPath = append(rc.ResolutionPath, "session_agent")
				rc.ResolvedAgentID = a.ID
				return a, rc, nil
			}
		}
	}

	// 3. System default, get-or-create exactly once.
	a, path, err := r.getOrCreateDefault(ctx)
	if err != nil {
		rc.ResolutionPath = append(rc.ResolutionPath, "resolution_failed")
		return nil, rc, err
	}
	rc.ResolutionPath = append(rc.ResolutionPath, path)
	rc.ResolvedAgentID = a.ID
	return a, rc, nil
}

func (r *Resolver) getOrCreateDefault(ctx context.Context) (*agents.Agent, string, error) {
	existing, err := r.agents.FindAgentByNameCategory(ctx, defaultAgentName, defaultAgentCategory)
	if err == nil {
		return existing, "system_default", nil
	}
	if !errors.Is(err, agents.ErrNotFound) {
		return nil, "", err
	}

	a := &agents.Agent{
		ID:              uuid.NewString(),
		Name:            defaultAgentName,
		Category:        defaultAgentCategory,
		MaturityLevel:   agents.MaturityStudent,
		ConfidenceScore: 0.5,
	}
	if err := r.agents.CreateAgent(ctx, a); err != nil {
		return nil, "", err
	}
	log.Printf("resolver: created system default agent %s", a.ID)
	return a, "system_default_created", nil
}

// SetSessionAgent pins an agent to a session. Returns false instead of an
// error when either side is missing; repeated calls are idempotent and any
// other session metadata is preserved.
func (r *Resolver) SetSessionAgent(ctx context.Context, sessionID, agentID string) bool {
	sess, err := r.sessions.GetSession(ctx, sessionID)
	if err != nil {
		log.Printf("resolver: set session agent, session %s: %v", sessionID, err)
		return false
	}
	if _, err := r.agents.GetAgent(ctx, agentID); err != nil {
		log.Printf("resolver: set session agent, agent %s: %v", agentID, err)
		return false
	}
	if sess.AgentID == agentID {
		return true
	}
	sess.AgentID = agentID
	if err := r.sessions.SaveSession(ctx, sess); err != nil {
		log.Printf("resolver: save session %s: %v", sessionID, err)
		return false
	}
	return true
}

// ValidateAgentForAction is a thin delegation into the governance check so
// callers can resolve-then-validate in one place.
func (r *Resolver) ValidateAgentForAction(ctx context.Context, agent *agents.Agent, actionType string, requireApproval *bool) (ledger.ActionCheck, error) {
	if agent == nil {
		return ledger.ActionCheck{}, agents.ErrNotFound
	}
	return r.validator.CanPerformAction(ctx, agent.ID, actionType, requireApproval)
}
