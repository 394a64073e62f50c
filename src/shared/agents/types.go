package agents

import "time"

// Agents
type Agent struct {
	ID              string        `gorm:"primaryKey;size:64"`
	Name            string        `gorm:"size:128;not null"`
	Category        string        `gorm:"size:32;index"`
	MaturityLevel   MaturityLevel `gorm:"size:16;not null;default:student"`
	ConfidenceScore float64       `gorm:"not null;default:0.5"`
	WorkspaceID     string        `gorm:"size:64;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Chat/workflow sessions an agent can be pinned to
type Session struct {
	ID        string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"size:64;index"`
	AgentID   string `gorm:"size:64;index"` // empty when no agent pinned
	Metadata  string `gorm:"type:text"`     // JSON blob, preserved on updates
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Proposals created by intern-tier agents instead of acting
type AgentProposal struct {
	ID           string         `gorm:"primaryKey;size:64"`
	AgentID      string         `gorm:"size:64;index;not null"`
	WorkspaceID  string         `gorm:"size:64;index"`
	ProposalType string         `gorm:"size:64;not null"`
	Title        string         `gorm:"size:255"`
	Description  string         `gorm:"type:text"`
	Status       ProposalStatus `gorm:"size:16;not null;default:pending"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Supervised executions being tracked
type SupervisionSession struct {
	ID             string            `gorm:"primaryKey;size:64"`
	AgentID        string            `gorm:"size:64;index;not null"`
	WorkspaceID    string            `gorm:"size:64;index"`
	UserID         string            `gorm:"size:64"`
	Status         SupervisionStatus `gorm:"size:16;not null;default:active"`
	TriggerContext string            `gorm:"type:text"` // JSON blob
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Blocked automated triggers, handed to the training service
type BlockedTriggerContext struct {
	ID            string `gorm:"primaryKey;size:64"`
	AgentID       string `gorm:"size:64;index;not null"`
	WorkspaceID   string `gorm:"size:64;index"`
	TriggerType   string `gorm:"size:64"`
	TriggerSource string `gorm:"size:32;not null"`
	Reason        string `gorm:"size:255"`
	Context       string `gorm:"type:text"` // JSON blob
	CreatedAt     time.Time
}

// Audit trail for governance mutations and routing verdicts
type GovernanceEvent struct {
	ID        uint64 `gorm:"primaryKey"`
	AgentID   string `gorm:"size:64;index;not null"`
	Kind      string `gorm:"size:32;not null"` // confidence_update, promote, demote, route
	Detail    string `gorm:"size:512"`
	Actor     string `gorm:"size:64"`
	CreatedAt time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
