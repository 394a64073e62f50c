package data

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/stake-plus/agentgov/src/shared/agents"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate creates or updates every governance table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&agents.Agent{},
		&agents.Session{},
		&agents.AgentProposal{},
		&agents.SupervisionSession{},
		&agents.BlockedTriggerContext{},
		&agents.GovernanceEvent{},
		&agents.Setting{},
	)
}

// Store is the gorm-backed record store consumed by the governance
// components. Point lookups map gorm's not-found to agents.ErrNotFound;
// anything else from the driver surfaces as agents.ErrTransient.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return agents.ErrNotFound
	}
	return fmt.Errorf("%w: %v", agents.ErrTransient, err)
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agents.Agent, error) {
	var a agents.Agent
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *Store) CreateAgent(ctx context.Context, a *agents.Agent) error {
	return mapErr(s.db.WithContext(ctx).Create(a).Error)
}

// AddAgentConfidence applies a confidence delta under a row lock, clamps
// to [0,1] and writes back only the confidence_score column. A concurrent
// maturity transition is never overwritten by this path.
func (s *Store) AddAgentConfidence(ctx context.Context, id string, delta float64) (float64, error) {
	var score float64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a agents.Agent
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&a, "id = ?", id).Error; err != nil {
			return err
		}
		score = a.ConfidenceScore + delta
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		return tx.Model(&agents.Agent{}).
			Where("id = ?", id).
			Update("confidence_score", score).Error
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return score, nil
}

// SetAgentMaturity moves the maturity level with a compare-and-swap on the
// expected current level, touching no other column. Zero rows affected
// means the agent is gone or another transition won the race.
func (s *Store) SetAgentMaturity(ctx context.Context, id string, from, to agents.MaturityLevel) error {
	res := s.db.WithContext(ctx).Model(&agents.Agent{}).
		Where("id = ? AND maturity_level = ?", id, from).
		Update("maturity_level", to)
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetAgent(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("maturity level changed concurrently: %w", agents.ErrInvalidState)
	}
	return nil
}

// FindAgentByNameCategory returns the oldest matching agent so that
// repeated get-or-create calls converge on one row.
func (s *Store) FindAgentByNameCategory(ctx context.Context, name, category string) (*agents.Agent, error) {
	var a agents.Agent
	err := s.db.WithContext(ctx).
		Where("name = ? AND category = ?", name, category).
		Order("created_at ASC").
		First(&a).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*agents.Session, error) {
	var sess agents.Session
	if err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &sess, nil
}

func (s *Store) SaveSession(ctx context.Context, sess *agents.Session) error {
	return mapErr(s.db.WithContext(ctx).Save(sess).Error)
}

func (s *Store) CreateProposal(ctx context.Context, p *agents.AgentProposal) error {
	return mapErr(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) CreateSupervisionSession(ctx context.Context, ss *agents.SupervisionSession) error {
	return mapErr(s.db.WithContext(ctx).Create(ss).Error)
}

func (s *Store) CreateBlockedContext(ctx context.Context, b *agents.BlockedTriggerContext) error {
	return mapErr(s.db.WithContext(ctx).Create(b).Error)
}

// RecordEvent appends an audit row. Audit failures are logged, not fatal;
// a full audit table must not roll back the governance write it describes.
func (s *Store) RecordEvent(ctx context.Context, ev *agents.GovernanceEvent) {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		log.Printf("audit: failed to record %s for agent %s: %v", ev.Kind, ev.AgentID, err)
	}
}
