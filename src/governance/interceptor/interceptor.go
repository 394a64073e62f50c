package interceptor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/stake-plus/agentgov/src/shared/agents"
)

// AgentStore is the slice of the record store the interceptor needs.
type AgentStore interface {
	GetAgent(ctx context.Context, id string) (*agents.Agent, error)
}

type ProposalStore interface {
	CreateProposal(ctx context.Context, p *agents.AgentProposal) error
}

type SupervisionStore interface {
	CreateSupervisionSession(ctx context.Context, ss *agents.SupervisionSession) error
}

type BlockedStore interface {
	CreateBlockedContext(ctx context.Context, b *agents.BlockedTriggerContext) error
}

// Cache is the short-lived maturity cache. Misses and backend failures look
// the same to the interceptor; the store stays authoritative.
type Cache interface {
	Get(ctx context.Context, agentID string) (agents.MaturityLevel, float64, bool)
	Set(ctx context.Context, agentID string, status agents.MaturityLevel, confidence float64)
}

// TrainingSink is the external training collaborator: it turns a blocked
// trigger into a learning proposal.
type TrainingSink interface {
	CreateTrainingProposal(ctx context.Context, blocked *agents.BlockedTriggerContext) (*agents.AgentProposal, error)
}

// DecisionPublisher fans routing verdicts out for observers. Optional.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, payload map[string]interface{}) error
}

// EventStore records route audit rows. Optional.
type EventStore interface {
	RecordEvent(ctx context.Context, ev *agents.GovernanceEvent)
}

// TriggerDecision is the verdict for one trigger attempt. At most one of
// BlockedContext/Proposal/SupervisionSession is set, matching the route.
// TrainingProposal rides alongside BlockedContext on the training route:
// it is the lesson the collaborator generated from the block, not the
// route's own payload.
type TriggerDecision struct {
	RoutingDecision    agents.RoutingDecision        `json:"routingDecision"`
	Execute            bool                          `json:"execute"`
	AgentID            string                        `json:"agentId"`
	AgentMaturity      agents.MaturityLevel          `json:"agentMaturity"`
	ConfidenceScore    float64                       `json:"confidenceScore"`
	TriggerSource      agents.TriggerSource          `json:"triggerSource"`
	Reason             string                        `json:"reason"`
	BlockedContext     *agents.BlockedTriggerContext `json:"blockedContext,omitempty"`
	Proposal           *agents.AgentProposal         `json:"proposal,omitempty"`
	SupervisionSession *agents.SupervisionSession    `json:"supervisionSession,omitempty"`
	TrainingProposal   *agents.AgentProposal         `json:"trainingProposal,omitempty"`
}

// ExecutionGrant confirms a caller may perform the side effect itself.
type ExecutionGrant struct {
	Allowed        bool                   `json:"allowed"`
	AgentID        string                 `json:"agentId"`
	TriggerContext map[string]interface{} `json:"triggerContext"`
}

type Config struct {
	WorkspaceID string
	Agents      AgentStore
	Proposals   ProposalStore
	Supervision SupervisionStore
	Blocked     BlockedStore
	Cache       Cache
	Training    TrainingSink
	Publisher   DecisionPublisher
	Events      EventStore
}

// Interceptor routes every trigger attempt by (maturity, trigger source).
// Manual triggers always execute; automated triggers are gated by tier.
type Interceptor struct {
	workspaceID string
	agents      AgentStore
	proposals   ProposalStore
	supervision SupervisionStore
	blocked     BlockedStore
	cache       Cache
	training    TrainingSink
	publisher   DecisionPublisher
	events      EventStore
}

func New(cfg Config) *Interceptor {
	return &Interceptor{
		workspaceID: cfg.WorkspaceID,
		agents:      cfg.Agents,
		proposals:   cfg.Proposals,
		supervision: cfg.Supervision,
		blocked:     cfg.Blocked,
		cache:       cfg.Cache,
		training:    cfg.Training,
		publisher:   cfg.Publisher,
		events:      cfg.Events,
	}
}

// getAgentMaturityCached reads the (status, confidence) pair through the
// cache, populating it on a miss. A missing agent is a hard failure; there
// is no silent default on this path.
func (i *Interceptor) getAgentMaturityCached(ctx context.Context, agentID string) (agents.MaturityLevel, float64, error) {
	if i.cache != nil {
		if level, score, ok := i.cache.Get(ctx, agentID); ok {
			return level, score, nil
		}
	}
	a, err := i.agents.GetAgent(ctx, agentID)
	if err != nil {
		return "", 0, err
	}
	if i.cache != nil {
		i.cache.Set(ctx, agentID, a.MaturityLevel, a.ConfidenceScore)
	}
	return a.MaturityLevel, a.ConfidenceScore, nil
}

// InterceptTrigger is the single entry point for every trigger attempt.
func (i *Interceptor) InterceptTrigger(ctx context.Context, agentID string, source agents.TriggerSource, triggerContext map[string]interface{}, userID string) (*TriggerDecision, error) {
	level, score, err := i.getAgentMaturityCached(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("intercept trigger for agent %s: %w", agentID, err)
	}

	d := &TriggerDecision{
		AgentID:         agentID,
		AgentMaturity:   level,
		ConfidenceScore: score,
		TriggerSource:   source,
	}

	if !source.Automated() {
		i.routeManual(d)
	} else {
		if err := i.routeAutomated(ctx, d, triggerContext, userID); err != nil {
			return nil, err
		}
	}

	if i.events != nil {
		i.events.RecordEvent(ctx, &agents.GovernanceEvent{
			AgentID: agentID,
			Kind:    "route",
			Detail:  fmt.Sprintf("%s via %s execute=%v", d.RoutingDecision, source, d.Execute),
			Actor:   userID,
		})
	}
	i.publish(ctx, d)
	return d, nil
}

// routeManual never blocks: maturity only colors the reason string.
func (i *Interceptor) routeManual(d *TriggerDecision) {
	d.RoutingDecision = agents.RouteExecution
	d.Execute = true
	switch d.AgentMaturity {
	case agents.MaturityStudent:
		d.Reason = "manual trigger executed; warning: student agent output needs careful review"
	case agents.MaturityIntern:
		d.Reason = "manual trigger executed in learning mode"
	default:
		d.Reason = "manual trigger executed"
	}
}

func (i *Interceptor) routeAutomated(ctx context.Context, d *TriggerDecision, triggerContext map[string]interface{}, userID string) error {
	switch d.AgentMaturity {
	case agents.MaturityIntern:
		return i.routeIntern(ctx, d, triggerContext)
	case agents.MaturitySupervised:
		return i.routeSupervised(ctx, d, triggerContext, userID)
	case agents.MaturityAutonomous:
		d.RoutingDecision = agents.RouteExecution
		d.Execute = true
		d.Reason = "automated trigger executing autonomously"
		return nil
	default:
		// Student, and fail closed for anything unrecognized.
		return i.routeStudent(ctx, d, triggerContext)
	}
}

// routeStudent blocks the trigger, persists a trace of it and hands it to
// the training collaborator so the blocked attempt still yields a lesson.
func (i *Interceptor) routeStudent(ctx context.Context, d *TriggerDecision, triggerContext map[string]interface{}) error {
	d.RoutingDecision = agents.RouteTraining
	d.Execute = false
	d.Reason = "automated trigger blocked: student agents train before acting"

	blocked := &agents.BlockedTriggerContext{
		ID:            uuid.NewString(),
		AgentID:       d.AgentID,
		WorkspaceID:   i.workspaceID,
		TriggerType:   contextString(triggerContext, "type"),
		TriggerSource: string(d.TriggerSource),
		Reason:        d.Reason,
		Context:       marshalContext(triggerContext),
	}
	if err := i.blocked.CreateBlockedContext(ctx, blocked); err != nil {
		return fmt.Errorf("persist blocked trigger for agent %s: %w", d.AgentID, err)
	}
	d.BlockedContext = blocked

	proposal, err := i.routeToTraining(ctx, blocked)
	if err != nil {
		// The block itself stands; the lesson can be regenerated later.
		log.Printf("training sink failed for agent %s: %v", d.AgentID, err)
		return nil
	}
	d.TrainingProposal = proposal
	return nil
}

func (i *Interceptor) routeIntern(ctx context.Context, d *TriggerDecision, triggerContext map[string]interface{}) error {
	d.RoutingDecision = agents.RouteProposal
	d.Execute = false
	d.Reason = "automated trigger converted to proposal pending review"

	proposedAction := contextString(triggerContext, "action")
	if proposedAction == "" {
		proposedAction = "automated_action"
	}
	proposal, err := i.CreateProposal(ctx, d.AgentID, triggerContext, proposedAction,
		fmt.Sprintf("intern agent intercepted on %s trigger", d.TriggerSource))
	if err != nil {
		return err
	}
	d.Proposal = proposal
	return nil
}

func (i *Interceptor) routeSupervised(ctx context.Context, d *TriggerDecision, triggerContext map[string]interface{}, userID string) error {
	d.RoutingDecision = agents.RouteSupervision
	d.Execute = true
	d.Reason = "automated trigger executing under supervision"

	session, err := i.ExecuteWithSupervision(ctx, triggerContext, d.AgentID, userID)
	if err != nil {
		return err
	}
	d.SupervisionSession = session
	return nil
}

// routeToTraining delegates the blocked context to the training collaborator.
func (i *Interceptor) routeToTraining(ctx context.Context, blocked *agents.BlockedTriggerContext) (*agents.AgentProposal, error) {
	if i.training == nil {
		return nil, fmt.Errorf("no training sink configured")
	}
	return i.training.CreateTrainingProposal(ctx, blocked)
}

// CreateProposal records the action an intern agent wanted to take, without
// taking it. The reasoning text is embedded in the description.
func (i *Interceptor) CreateProposal(ctx context.Context, internAgentID string, triggerContext map[string]interface{}, proposedAction, reasoning string) (*agents.AgentProposal, error) {
	if _, err := i.agents.GetAgent(ctx, internAgentID); err != nil {
		return nil, fmt.Errorf("create proposal for agent %s: %w", internAgentID, err)
	}

	p := &agents.AgentProposal{
		ID:           uuid.NewString(),
		AgentID:      internAgentID,
		WorkspaceID:  i.workspaceID,
		ProposalType: proposedAction,
		Title:        fmt.Sprintf("Proposed: %s", proposedAction),
		Description:  fmt.Sprintf("%s\n\nContext: %s", reasoning, marshalContext(triggerContext)),
		Status:       agents.ProposalPending,
	}
	if err := i.proposals.CreateProposal(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ExecuteWithSupervision opens a running supervision session. The caller,
// not this routine, performs the side effect once it holds the session.
func (i *Interceptor) ExecuteWithSupervision(ctx context.Context, triggerContext map[string]interface{}, agentID, userID string) (*agents.SupervisionSession, error) {
	if _, err := i.agents.GetAgent(ctx, agentID); err != nil {
		return nil, fmt.Errorf("supervise agent %s: %w", agentID, err)
	}

	ss := &agents.SupervisionSession{
		ID:             uuid.NewString(),
		AgentID:        agentID,
		WorkspaceID:    i.workspaceID,
		UserID:         userID,
		Status:         agents.SupervisionRunning,
		TriggerContext: marshalContext(triggerContext),
	}
	if err := i.supervision.CreateSupervisionSession(ctx, ss); err != nil {
		return nil, err
	}
	return ss, nil
}

// AllowExecution confirms an agent exists and may proceed. Pure pass-through.
func (i *Interceptor) AllowExecution(ctx context.Context, agentID string, triggerContext map[string]interface{}) (*ExecutionGrant, error) {
	if _, err := i.agents.GetAgent(ctx, agentID); err != nil {
		return nil, fmt.Errorf("allow execution for agent %s: %w", agentID, err)
	}
	return &ExecutionGrant{Allowed: true, AgentID: agentID, TriggerContext: triggerContext}, nil
}

func (i *Interceptor) publish(ctx context.Context, d *TriggerDecision) {
	if i.publisher == nil {
		return
	}
	err := i.publisher.PublishDecision(ctx, map[string]interface{}{
		"agentId":  d.AgentID,
		"maturity": string(d.AgentMaturity),
		"source":   string(d.TriggerSource),
		"route":    string(d.RoutingDecision),
		"execute":  fmt.Sprintf("%v", d.Execute),
	})
	if err != nil {
		log.Printf("publish decision for agent %s: %v", d.AgentID, err)
	}
}

func contextString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func marshalContext(m map[string]interface{}) string {
	if m == nil {
		return "{}"
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
