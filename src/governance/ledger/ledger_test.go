package ledger

import (
	"context"
	"testing"

	"github.com/stake-plus/agentgov/src/shared/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	agents map[string]*agents.Agent
	events []*agents.GovernanceEvent
}

func newMemStore() *memStore {
	return &memStore{agents: make(map[string]*agents.Agent)}
}

func (m *memStore) GetAgent(_ context.Context, id string) (*agents.Agent, error) {
	a, ok := m.agents[id]
	if !ok {
		return nil, agents.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) AddAgentConfidence(_ context.Context, id string, delta float64) (float64, error) {
	a, ok := m.agents[id]
	if !ok {
		return 0, agents.ErrNotFound
	}
	score := a.ConfidenceScore + delta
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	a.ConfidenceScore = score
	return score, nil
}

func (m *memStore) SetAgentMaturity(_ context.Context, id string, from, to agents.MaturityLevel) error {
	a, ok := m.agents[id]
	if !ok {
		return agents.ErrNotFound
	}
	if a.MaturityLevel != from {
		return agents.ErrInvalidState
	}
	a.MaturityLevel = to
	return nil
}

// interleaveStore lets a test commit a competing write between the start
// of a ledger operation and its store write, the way a concurrent caller
// would.
type interleaveStore struct {
	*memStore
	beforeConfidenceWrite func()
	beforeMaturityWrite   func()
}

func (s *interleaveStore) AddAgentConfidence(ctx context.Context, id string, delta float64) (float64, error) {
	if s.beforeConfidenceWrite != nil {
		s.beforeConfidenceWrite()
	}
	return s.memStore.AddAgentConfidence(ctx, id, delta)
}

func (s *interleaveStore) SetAgentMaturity(ctx context.Context, id string, from, to agents.MaturityLevel) error {
	if s.beforeMaturityWrite != nil {
		s.beforeMaturityWrite()
	}
	return s.memStore.SetAgentMaturity(ctx, id, from, to)
}

func (m *memStore) RecordEvent(_ context.Context, ev *agents.GovernanceEvent) {
	m.events = append(m.events, ev)
}

type staticPerms struct{ allow bool }

func (p staticPerms) CheckPermission(user, action string) bool { return p.allow }

type recordingCache struct{ invalidated []string }

func (c *recordingCache) Invalidate(_ context.Context, agentID string) {
	c.invalidated = append(c.invalidated, agentID)
}

func newTestLedger(store *memStore, allow bool) *Ledger {
	return New(Config{Agents: store, Events: store, Perms: staticPerms{allow: allow}})
}

func seedAgent(store *memStore, level agents.MaturityLevel, score float64) *agents.Agent {
	a := &agents.Agent{
		ID:              "agent-1",
		Name:            "Test Agent",
		MaturityLevel:   level,
		ConfidenceScore: score,
	}
	store.agents[a.ID] = a
	return a
}

func TestUpdateConfidenceDeltas(t *testing.T) {
	cases := []struct {
		name     string
		start    float64
		positive bool
		impact   Impact
		want     float64
	}{
		{"low positive", 0.5, true, ImpactLow, 0.51},
		{"high positive", 0.5, true, ImpactHigh, 0.6},
		{"low negative", 0.5, false, ImpactLow, 0.49},
		{"high negative", 0.5, false, ImpactHigh, 0.4},
		{"clamped at one", 0.99, true, ImpactHigh, 1.0},
		{"clamped at zero", 0.05, false, ImpactHigh, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			seedAgent(store, agents.MaturityStudent, tc.start)
			l := newTestLedger(store, true)

			got, err := l.UpdateConfidence(context.Background(), "agent-1", tc.positive, tc.impact)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestConfidenceStaysClampedOverAnySequence(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityStudent, 0.5)
	l := newTestLedger(store, true)
	ctx := context.Background()

	seq := []struct {
		positive bool
		impact   Impact
	}{
		{true, ImpactHigh}, {true, ImpactHigh}, {true, ImpactHigh},
		{true, ImpactHigh}, {true, ImpactHigh}, {true, ImpactHigh},
		{false, ImpactLow}, {false, ImpactHigh}, {false, ImpactHigh},
		{false, ImpactHigh}, {false, ImpactHigh}, {false, ImpactHigh},
		{false, ImpactHigh}, {false, ImpactHigh}, {false, ImpactHigh},
		{false, ImpactHigh}, {false, ImpactHigh}, {true, ImpactLow},
	}
	for _, step := range seq {
		score, err := l.UpdateConfidence(ctx, "agent-1", step.positive, step.impact)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestHighImpactDeltaDominatesLow(t *testing.T) {
	ctx := context.Background()

	storeLow := newMemStore()
	seedAgent(storeLow, agents.MaturityStudent, 0.3)
	low, err := newTestLedger(storeLow, true).UpdateConfidence(ctx, "agent-1", true, ImpactLow)
	require.NoError(t, err)

	storeHigh := newMemStore()
	seedAgent(storeHigh, agents.MaturityStudent, 0.3)
	high, err := newTestLedger(storeHigh, true).UpdateConfidence(ctx, "agent-1", true, ImpactHigh)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, high-0.3, low-0.3)
}

func TestUpdateConfidenceNeverChangesMaturity(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityIntern, 0.5)
	l := newTestLedger(store, true)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := l.UpdateConfidence(ctx, "agent-1", true, ImpactHigh)
		require.NoError(t, err)
	}
	assert.Equal(t, agents.MaturityIntern, store.agents["agent-1"].MaturityLevel)
}

func TestConfidenceWriteDoesNotRevertConcurrentPromotion(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityStudent, 0.5)

	// A promotion commits after UpdateConfidence has started but before
	// its write lands. The confidence write is column-scoped, so the new
	// level must survive.
	wrapped := &interleaveStore{
		memStore: store,
		beforeConfidenceWrite: func() {
			store.agents["agent-1"].MaturityLevel = agents.MaturityIntern
		},
	}
	l := New(Config{Agents: wrapped, Events: store, Perms: staticPerms{allow: true}})

	score, err := l.UpdateConfidence(context.Background(), "agent-1", true, ImpactLow)
	require.NoError(t, err)
	assert.InDelta(t, 0.51, score, 1e-9)
	assert.Equal(t, agents.MaturityIntern, store.agents["agent-1"].MaturityLevel)
}

func TestMaturityWriteDoesNotRevertConcurrentConfidence(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityStudent, 0.5)

	wrapped := &interleaveStore{
		memStore: store,
		beforeMaturityWrite: func() {
			store.agents["agent-1"].ConfidenceScore = 0.8
		},
	}
	l := New(Config{Agents: wrapped, Events: store, Perms: staticPerms{allow: true}})

	got, err := l.Promote(context.Background(), "admin", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, agents.MaturityIntern, got)
	assert.InDelta(t, 0.8, store.agents["agent-1"].ConfidenceScore, 1e-9)
}

func TestTransitionDetectsConcurrentMaturityChange(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityStudent, 0.5)

	// Another transition wins the race; the compare-and-swap must fail
	// instead of stomping it.
	wrapped := &interleaveStore{
		memStore: store,
		beforeMaturityWrite: func() {
			store.agents["agent-1"].MaturityLevel = agents.MaturitySupervised
		},
	}
	l := New(Config{Agents: wrapped, Events: store, Perms: staticPerms{allow: true}})

	_, err := l.Promote(context.Background(), "admin", "agent-1")
	assert.ErrorIs(t, err, agents.ErrInvalidState)
	assert.Equal(t, agents.MaturitySupervised, store.agents["agent-1"].MaturityLevel)
}

func TestUpdateConfidenceUnknownAgent(t *testing.T) {
	l := newTestLedger(newMemStore(), true)
	_, err := l.UpdateConfidence(context.Background(), "ghost", true, ImpactLow)
	assert.ErrorIs(t, err, agents.ErrNotFound)
}

func TestPromoteWalksStrictOrder(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityStudent, 0.5)
	l := newTestLedger(store, true)
	ctx := context.Background()

	want := []agents.MaturityLevel{
		agents.MaturityIntern,
		agents.MaturitySupervised,
		agents.MaturityAutonomous,
	}
	for _, lvl := range want {
		got, err := l.Promote(ctx, "admin", "agent-1")
		require.NoError(t, err)
		assert.Equal(t, lvl, got)
	}

	_, err := l.Promote(ctx, "admin", "agent-1")
	assert.ErrorIs(t, err, agents.ErrInvalidState)
}

func TestDemoteStopsAtStudent(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityIntern, 0.5)
	l := newTestLedger(store, true)
	ctx := context.Background()

	got, err := l.Demote(ctx, "admin", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, agents.MaturityStudent, got)

	_, err = l.Demote(ctx, "admin", "agent-1")
	assert.ErrorIs(t, err, agents.ErrInvalidState)
}

func TestPromoteRequiresPermission(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityStudent, 0.5)
	l := newTestLedger(store, false)

	_, err := l.Promote(context.Background(), "intruder", "agent-1")
	assert.ErrorIs(t, err, agents.ErrPermissionDenied)
	assert.Equal(t, agents.MaturityStudent, store.agents["agent-1"].MaturityLevel)
}

func TestPromoteUnknownAgent(t *testing.T) {
	l := newTestLedger(newMemStore(), true)
	_, err := l.Promote(context.Background(), "admin", "ghost")
	assert.ErrorIs(t, err, agents.ErrNotFound)
}

func TestPromoteInvalidatesMaturityCache(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityStudent, 0.5)
	cache := &recordingCache{}
	l := New(Config{Agents: store, Events: store, Perms: staticPerms{allow: true}, Cache: cache})

	_, err := l.Promote(context.Background(), "admin", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-1"}, cache.invalidated)
}

func TestPromoteRecordsAuditEvent(t *testing.T) {
	store := newMemStore()
	seedAgent(store, agents.MaturityStudent, 0.5)
	l := newTestLedger(store, true)

	_, err := l.Promote(context.Background(), "admin", "agent-1")
	require.NoError(t, err)

	require.Len(t, store.events, 1)
	assert.Equal(t, "promote", store.events[0].Kind)
	assert.Equal(t, "admin", store.events[0].Actor)
}

func TestActionComplexityFailsClosed(t *testing.T) {
	assert.Equal(t, 1, ActionComplexity("read"))
	assert.Equal(t, 2, ActionComplexity("generate"))
	assert.Equal(t, 3, ActionComplexity("update"))
	assert.Equal(t, 4, ActionComplexity("delete"))
	assert.Equal(t, 4, ActionComplexity("no-such-action"))
	assert.Equal(t, 4, ActionComplexity(""))
}

func TestCanPerformActionTable(t *testing.T) {
	// One representative action per tier, checked against every level.
	actions := map[string]int{
		"read":     1,
		"generate": 2,
		"create":   3,
		"delete":   4,
	}
	levels := []agents.MaturityLevel{
		agents.MaturityStudent,
		agents.MaturityIntern,
		agents.MaturitySupervised,
		agents.MaturityAutonomous,
	}
	ctx := context.Background()

	for _, level := range levels {
		for action, tier := range actions {
			store := newMemStore()
			seedAgent(store, level, 0.5)
			l := newTestLedger(store, true)

			check, err := l.CanPerformAction(ctx, "agent-1", action, nil)
			require.NoError(t, err)

			wantAllowed := tier <= MaturityCeiling(level)
			assert.Equalf(t, wantAllowed, check.Allowed, "level=%s action=%s", level, action)
			if !wantAllowed {
				assert.Contains(t, check.Reason, "insufficient maturity")
			}
		}
	}
}

func TestSupervisedApprovalDefaultAndOverride(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	seedAgent(store, agents.MaturitySupervised, 0.5)
	l := newTestLedger(store, true)

	check, err := l.CanPerformAction(ctx, "agent-1", "create", nil)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.True(t, check.RequiresHumanApproval)

	noApproval := false
	check, err = l.CanPerformAction(ctx, "agent-1", "create", &noApproval)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.False(t, check.RequiresHumanApproval)

	// Non-supervised levels never require approval.
	store2 := newMemStore()
	seedAgent(store2, agents.MaturityAutonomous, 0.9)
	check, err = newTestLedger(store2, true).CanPerformAction(ctx, "agent-1", "delete", nil)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.False(t, check.RequiresHumanApproval)
}
