package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/agentgov/src/governance/interceptor"
	"github.com/stake-plus/agentgov/src/shared/agents"
)

type Triggers struct {
	ic *interceptor.Interceptor
}

func NewTriggers(ic *interceptor.Interceptor) Triggers {
	return Triggers{ic: ic}
}

func (h Triggers) Intercept(c *gin.Context) {
	var req struct {
		AgentID string                 `json:"agentId" binding:"required"`
		Source  string                 `json:"source" binding:"required,oneof=manual data_sync workflow_engine ai_coordinator"`
		Context map[string]interface{} `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	user := c.GetString("user")
	decision, err := h.ic.InterceptTrigger(c, req.AgentID, agents.TriggerSource(req.Source), req.Context, user)
	if err != nil {
		log.Printf("intercept %s trigger for agent %s: %v", req.Source, req.AgentID, err)
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}
