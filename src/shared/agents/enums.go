package agents

// MaturityLevel is the discrete governance tier bounding what an agent may do.
type MaturityLevel string

const (
	MaturityStudent    MaturityLevel = "student"
	MaturityIntern     MaturityLevel = "intern"
	MaturitySupervised MaturityLevel = "supervised"
	MaturityAutonomous MaturityLevel = "autonomous"
)

// maturityOrder is the strict promotion order. Demotion walks it backwards.
var maturityOrder = []MaturityLevel{
	MaturityStudent,
	MaturityIntern,
	MaturitySupervised,
	MaturityAutonomous,
}

// Valid returns true if the level is a known value.
func (m MaturityLevel) Valid() bool {
	switch m {
	case MaturityStudent, MaturityIntern, MaturitySupervised, MaturityAutonomous:
		return true
	default:
		return false
	}
}

// Next returns the level one step up, or ok=false at autonomous.
func (m MaturityLevel) Next() (MaturityLevel, bool) {
	for i, lvl := range maturityOrder {
		if lvl == m && i+1 < len(maturityOrder) {
			return maturityOrder[i+1], true
		}
	}
	return m, false
}

// Prev returns the level one step down, or ok=false at student.
func (m MaturityLevel) Prev() (MaturityLevel, bool) {
	for i, lvl := range maturityOrder {
		if lvl == m && i > 0 {
			return maturityOrder[i-1], true
		}
	}
	return m, false
}

// TriggerSource distinguishes who asked the agent to act.
type TriggerSource string

const (
	SourceManual         TriggerSource = "manual"
	SourceDataSync       TriggerSource = "data_sync"
	SourceWorkflowEngine TriggerSource = "workflow_engine"
	SourceAiCoordinator  TriggerSource = "ai_coordinator"
)

func (s TriggerSource) Valid() bool {
	switch s {
	case SourceManual, SourceDataSync, SourceWorkflowEngine, SourceAiCoordinator:
		return true
	default:
		return false
	}
}

// Automated returns true for every source except a human-initiated trigger.
func (s TriggerSource) Automated() bool {
	return s != SourceManual
}

// RoutingDecision is the interceptor's verdict for one trigger.
type RoutingDecision string

const (
	RouteTraining    RoutingDecision = "training"
	RouteProposal    RoutingDecision = "proposal"
	RouteSupervision RoutingDecision = "supervision"
	RouteExecution   RoutingDecision = "execution"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExecuted ProposalStatus = "executed"
)

type SupervisionStatus string

const (
	SupervisionActive    SupervisionStatus = "active"
	SupervisionRunning   SupervisionStatus = "running"
	SupervisionCompleted SupervisionStatus = "completed"
)
