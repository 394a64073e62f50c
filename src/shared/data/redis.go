package data

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/agentgov/src/shared/agents"
)

const (
	maturityPrefix  = "maturity:"
	streamDecisions = "agentgov.decisions"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

type maturityEntry struct {
	Status     agents.MaturityLevel `json:"status"`
	Confidence float64              `json:"confidence"`
}

// MaturityCache is the read-through cache in front of the agent table.
// It is a performance layer only; the store stays the source of truth.
type MaturityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewMaturityCache(rdb *redis.Client, ttl time.Duration) *MaturityCache {
	return &MaturityCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached (status, confidence) pair. Any redis failure is
// reported as a miss so the caller falls through to the store.
func (c *MaturityCache) Get(ctx context.Context, agentID string) (agents.MaturityLevel, float64, bool) {
	raw, err := c.rdb.Get(ctx, maturityPrefix+agentID).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("maturity cache get %s: %v", agentID, err)
		}
		return "", 0, false
	}
	var e maturityEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		log.Printf("maturity cache decode %s: %v", agentID, err)
		return "", 0, false
	}
	return e.Status, e.Confidence, true
}

func (c *MaturityCache) Set(ctx context.Context, agentID string, status agents.MaturityLevel, confidence float64) {
	raw, err := json.Marshal(maturityEntry{Status: status, Confidence: confidence})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, maturityPrefix+agentID, raw, c.ttl).Err(); err != nil {
		log.Printf("maturity cache set %s: %v", agentID, err)
	}
}

// Invalidate drops the cached pair after a promote/demote so the next
// routing call observes the new tier instead of waiting out the TTL.
func (c *MaturityCache) Invalidate(ctx context.Context, agentID string) {
	if err := c.rdb.Del(ctx, maturityPrefix+agentID).Err(); err != nil {
		log.Printf("maturity cache invalidate %s: %v", agentID, err)
	}
}

// PublishDecision fans a routing verdict out on the decision stream.
func PublishDecision(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamDecisions,
		Values: payload,
	}).Result()
	return err
}
