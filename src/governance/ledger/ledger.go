package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/stake-plus/agentgov/src/shared/agents"
)

// Confidence deltas per impact level.
type Impact string

const (
	ImpactLow  Impact = "low"
	ImpactHigh Impact = "high"
)

const (
	deltaLow  = 0.01
	deltaHigh = 0.10
)

// AgentStore is the slice of the record store the ledger needs. Both write
// operations are column-scoped and atomic: AddAgentConfidence applies the
// delta and clamps to [0,1] under the store's own locking, touching only
// the confidence column; SetAgentMaturity compare-and-swaps the level from
// its expected current value, failing with ErrInvalidState when another
// transition got there first.
type AgentStore interface {
	GetAgent(ctx context.Context, id string) (*agents.Agent, error)
	AddAgentConfidence(ctx context.Context, id string, delta float64) (float64, error)
	SetAgentMaturity(ctx context.Context, id string, from, to agents.MaturityLevel) error
}

// EventStore records audit rows for governance mutations.
type EventStore interface {
	RecordEvent(ctx context.Context, ev *agents.GovernanceEvent)
}

// PermissionChecker authorizes promote/demote callers.
type PermissionChecker interface {
	CheckPermission(user, action string) bool
}

// Invalidator drops a cached maturity entry after an explicit transition.
// Nil is fine; the entry then ages out on its TTL.
type Invalidator interface {
	Invalidate(ctx context.Context, agentID string)
}

type Config struct {
	Agents AgentStore
	Events EventStore
	Perms  PermissionChecker
	Cache  Invalidator
}

// Ledger owns the numeric confidence score and the symbolic maturity level.
// Confidence moves only through UpdateConfidence; the level moves only
// through Promote/Demote. A noisy outcome can never flip a permission tier.
type Ledger struct {
	agents AgentStore
	events EventStore
	perms  PermissionChecker
	cache  Invalidator
}

func New(cfg Config) *Ledger {
	return &Ledger{
		agents: cfg.Agents,
		events: cfg.Events,
		perms:  cfg.Perms,
		cache:  cfg.Cache,
	}
}

// GetMaturity returns the stored (level, confidence) pair for an agent.
func (l *Ledger) GetMaturity(ctx context.Context, agentID string) (agents.MaturityLevel, float64, error) {
	a, err := l.agents.GetAgent(ctx, agentID)
	if err != nil {
		return "", 0, err
	}
	return a.MaturityLevel, a.ConfidenceScore, nil
}

// UpdateConfidence applies a signed delta and clamps to [0,1]. The write
// goes through the store's atomic confidence operation and never touches
// the maturity level.
func (l *Ledger) UpdateConfidence(ctx context.Context, agentID string, positive bool, impact Impact) (float64, error) {
	delta := deltaLow
	if impact == ImpactHigh {
		delta = deltaHigh
	}
	if !positive {
		delta = -delta
	}

	score, err := l.agents.AddAgentConfidence(ctx, agentID, delta)
	if err != nil {
		return 0, err
	}

	if l.events != nil {
		l.events.RecordEvent(ctx, &agents.GovernanceEvent{
			AgentID: agentID,
			Kind:    "confidence_update",
			Detail:  fmt.Sprintf("positive=%v impact=%s score=%.4f", positive, impact, score),
		})
	}
	return score, nil
}

// Promote moves the agent one step up the maturity ladder.
func (l *Ledger) Promote(ctx context.Context, user, agentID string) (agents.MaturityLevel, error) {
	return l.transition(ctx, user, agentID, true)
}

// Demote moves the agent one step down the maturity ladder.
func (l *Ledger) Demote(ctx context.Context, user, agentID string) (agents.MaturityLevel, error) {
	return l.transition(ctx, user, agentID, false)
}

func (l *Ledger) transition(ctx context.Context, user, agentID string, up bool) (agents.MaturityLevel, error) {
	action := "agent.demote"
	kind := "demote"
	if up {
		action = "agent.promote"
		kind = "promote"
	}
	if l.perms != nil && !l.perms.CheckPermission(user, action) {
		return "", fmt.Errorf("%s by %s: %w", kind, user, agents.ErrPermissionDenied)
	}

	a, err := l.agents.GetAgent(ctx, agentID)
	if err != nil {
		return "", err
	}

	var next agents.MaturityLevel
	var ok bool
	if up {
		next, ok = a.MaturityLevel.Next()
	} else {
		next, ok = a.MaturityLevel.Prev()
	}
	if !ok {
		return "", fmt.Errorf("%s from %s: %w", kind, a.MaturityLevel, agents.ErrInvalidState)
	}

	prev := a.MaturityLevel
	if err := l.agents.SetAgentMaturity(ctx, agentID, prev, next); err != nil {
		return "", err
	}

	log.Printf("agent %s %sd %s -> %s by %s", agentID, kind, prev, next, user)
	if l.events != nil {
		l.events.RecordEvent(ctx, &agents.GovernanceEvent{
			AgentID: agentID,
			Kind:    kind,
			Detail:  fmt.Sprintf("%s -> %s", prev, next),
			Actor:   user,
		})
	}
	if l.cache != nil {
		l.cache.Invalidate(ctx, agentID)
	}
	return next, nil
}

// ActionCheck is the verdict of CanPerformAction.
type ActionCheck struct {
	Allowed               bool   `json:"allowed"`
	RequiresHumanApproval bool   `json:"requiresHumanApproval"`
	Reason                string `json:"reason"`
}

// CanPerformAction allows an action iff its complexity tier is within the
// agent's maturity ceiling. Supervised agents that are allowed default to
// requiring human approval unless the override says otherwise.
func (l *Ledger) CanPerformAction(ctx context.Context, agentID, action string, requireApprovalOverride *bool) (ActionCheck, error) {
	a, err := l.agents.GetAgent(ctx, agentID)
	if err != nil {
		return ActionCheck{}, err
	}

	complexity := ActionComplexity(action)
	ceiling := MaturityCeiling(a.MaturityLevel)

	if complexity > ceiling {
		return ActionCheck{
			Allowed: false,
			Reason: fmt.Sprintf("insufficient maturity: action %q is tier %d, %s ceiling is %d",
				action, complexity, a.MaturityLevel, ceiling),
		}, nil
	}

	requiresApproval := false
	if a.MaturityLevel == agents.MaturitySupervised {
		requiresApproval = true
		if requireApprovalOverride != nil && !*requireApprovalOverride {
			requiresApproval = false
		}
	}

	return ActionCheck{
		Allowed:               true,
		RequiresHumanApproval: requiresApproval,
		Reason:                fmt.Sprintf("action %q (tier %d) within %s ceiling %d", action, complexity, a.MaturityLevel, ceiling),
	}, nil
}
