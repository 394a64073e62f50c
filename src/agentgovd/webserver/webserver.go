package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/stake-plus/agentgov/src/agentgovd/config"
	"github.com/stake-plus/agentgov/src/governance/interceptor"
	"github.com/stake-plus/agentgov/src/governance/ledger"
	"github.com/stake-plus/agentgov/src/governance/resolver"
	"github.com/stake-plus/agentgov/src/shared/data"
)

type Deps struct {
	Cfg         config.Config
	Store       *data.Store
	Ledger      *ledger.Ledger
	Resolver    *resolver.Resolver
	Interceptor *interceptor.Interceptor
}

func New(d Deps) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, d)
	return g
}
