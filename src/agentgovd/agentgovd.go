package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/agentgov/src/agentgovd/config"
	"github.com/stake-plus/agentgov/src/agentgovd/training"
	"github.com/stake-plus/agentgov/src/agentgovd/webserver"
	"github.com/stake-plus/agentgov/src/governance/interceptor"
	"github.com/stake-plus/agentgov/src/governance/ledger"
	"github.com/stake-plus/agentgov/src/governance/resolver"
	"github.com/stake-plus/agentgov/src/shared/data"
)

// settingsPerms authorizes promote/demote against the governance_admins
// setting (comma-separated user ids).
type settingsPerms struct{}

func (settingsPerms) CheckPermission(user, action string) bool {
	if user == "" {
		return false
	}
	for _, admin := range strings.Split(data.GetSetting("governance_admins"), ",") {
		if strings.TrimSpace(admin) == user {
			return true
		}
	}
	return false
}

type decisionPublisher struct {
	rdb *redis.Client
}

func (p decisionPublisher) PublishDecision(ctx context.Context, payload map[string]interface{}) error {
	return data.PublishDecision(ctx, p.rdb, payload)
}

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)
	store := data.NewStore(db)
	cache := data.NewMaturityCache(rdb, cfg.MaturityCacheTTL)

	var sink interceptor.TrainingSink
	if cfg.TrainingURL != "" {
		sink = training.NewClient(cfg.TrainingURL, cfg.TrainingToken)
	} else {
		sink = training.NoopSink{Proposals: store}
	}

	led := ledger.New(ledger.Config{
		Agents: store,
		Events: store,
		Perms:  settingsPerms{},
		Cache:  cache,
	})
	res := resolver.New(resolver.Config{
		Agents:    store,
		Sessions:  store,
		Validator: led,
	})
	ic := interceptor.New(interceptor.Config{
		WorkspaceID: cfg.WorkspaceID,
		Agents:      store,
		Proposals:   store,
		Supervision: store,
		Blocked:     store,
		Cache:       cache,
		Training:    sink,
		Publisher:   decisionPublisher{rdb: rdb},
		Events:      store,
	})

	router := webserver.New(webserver.Deps{
		Cfg:         cfg,
		Store:       store,
		Ledger:      led,
		Resolver:    res,
		Interceptor: ic,
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		var err error
		if cfg.EnableSSL && cfg.SSLCert != "" && cfg.SSLKey != "" {
			log.Printf("Starting HTTPS server on port %s", cfg.Port)
			err = httpSrv.ListenAndServeTLS(cfg.SSLCert, cfg.SSLKey)
		} else {
			log.Printf("Starting HTTP server on port %s", cfg.Port)
			err = httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("AgentGov listening on %s (workspace %s)", cfg.Port, cfg.WorkspaceID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
