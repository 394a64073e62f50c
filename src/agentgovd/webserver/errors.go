package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/agentgov/src/shared/agents"
)

// respondErr maps the governance error taxonomy to HTTP statuses.
func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, agents.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, agents.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, agents.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, agents.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"err": err.Error()})
}
