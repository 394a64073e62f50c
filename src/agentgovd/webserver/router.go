package webserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func attachRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	agentsH := NewAgents(d.Store, d.Ledger, d.Resolver)
	triggersH := NewTriggers(d.Interceptor)
	limiter := NewRateLimiter(60, time.Minute)

	v1 := r.Group("/v1")
	v1.Use(JWTMiddleware([]byte(d.Cfg.JWTSecret)), RateLimitMiddleware(limiter))
	{
		v1.POST("/agents/resolve", agentsH.Resolve)
		v1.GET("/agents/:id", agentsH.Get)
		v1.POST("/agents/:id/can-perform", agentsH.CanPerform)
		v1.POST("/agents/:id/confidence", agentsH.UpdateConfidence)
		v1.POST("/agents/:id/promote", agentsH.Promote)
		v1.POST("/agents/:id/demote", agentsH.Demote)
		v1.POST("/sessions/:id/agent", agentsH.SetSessionAgent)
		v1.POST("/triggers/intercept", triggersH.Intercept)
	}
}
