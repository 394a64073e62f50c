package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/agentgov/src/governance/ledger"
	"github.com/stake-plus/agentgov/src/governance/resolver"
	"github.com/stake-plus/agentgov/src/shared/data"
)

type Agents struct {
	store    *data.Store
	ledger   *ledger.Ledger
	resolver *resolver.Resolver
}

func NewAgents(store *data.Store, l *ledger.Ledger, r *resolver.Resolver) Agents {
	return Agents{store: store, ledger: l, resolver: r}
}

func (h Agents) Resolve(c *gin.Context) {
	var req struct {
		SessionID  string `json:"sessionId"`
		AgentID    string `json:"agentId"`
		ActionType string `json:"actionType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	user := c.GetString("user")
	agent, rc, err := h.resolver.Resolve(c, user, req.SessionID, req.AgentID, req.ActionType)
	if err != nil {
		log.Printf("resolve for user %s: %v", user, err)
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"agent": agent, "resolution": rc})
}

func (h Agents) Get(c *gin.Context) {
	agent, err := h.store.GetAgent(c, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h Agents) CanPerform(c *gin.Context) {
	var req struct {
		Action          string `json:"action" binding:"required"`
		RequireApproval *bool  `json:"requireApproval"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	check, err := h.ledger.CanPerformAction(c, c.Param("id"), req.Action, req.RequireApproval)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h Agents) UpdateConfidence(c *gin.Context) {
	var req struct {
		Positive *bool  `json:"positive" binding:"required"`
		Impact   string `json:"impact" binding:"required,oneof=low high"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	impact := ledger.ImpactLow
	if req.Impact == "high" {
		impact = ledger.ImpactHigh
	}
	score, err := h.ledger.UpdateConfidence(c, c.Param("id"), *req.Positive, impact)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"confidenceScore": score})
}

func (h Agents) Promote(c *gin.Context) {
	level, err := h.ledger.Promote(c, c.GetString("user"), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"maturityLevel": level})
}

func (h Agents) Demote(c *gin.Context) {
	level, err := h.ledger.Demote(c, c.GetString("user"), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"maturityLevel": level})
}

func (h Agents) SetSessionAgent(c *gin.Context) {
	var req struct {
		AgentID string `json:"agentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if ok := h.resolver.SetSessionAgent(c, c.Param("id"), req.AgentID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"err": "session or agent not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
