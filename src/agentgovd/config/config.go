package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	MySQLDSN         string
	RedisURL         string
	JWTSecret        string
	Port             string
	WorkspaceID      string
	TrainingURL      string
	TrainingToken    string
	MaturityCacheTTL time.Duration
	EnableSSL        bool
	SSLCert          string
	SSLKey           string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	ttlSecs, _ := strconv.Atoi(getenv("MATURITY_CACHE_TTL", "30"))
	return Config{
		MySQLDSN:         getenv("MYSQL_DSN", "agentgov:agentgov@tcp(localhost:3306)/agentgov"),
		RedisURL:         getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:        getenv("JWT_SECRET", ""),
		Port:             getenv("PORT", "8080"),
		WorkspaceID:      getenv("WORKSPACE_ID", "default"),
		TrainingURL:      os.Getenv("TRAINING_URL"),
		TrainingToken:    os.Getenv("TRAINING_TOKEN"),
		MaturityCacheTTL: time.Duration(ttlSecs) * time.Second,
		EnableSSL:        os.Getenv("ENABLE_SSL") == "true",
		SSLCert:          os.Getenv("SSL_CERT"),
		SSLKey:           os.Getenv("SSL_KEY"),
	}
}
