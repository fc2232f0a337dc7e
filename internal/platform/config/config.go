package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AIRiskCacheTTL bounds how long an externally computed risk assessment is
// reused before recomputation, per tag code.
var AIRiskCacheTTL = 5 * time.Minute

// Server captures process-level configuration, read once at startup.
type Server struct {
	Addr string

	// DatabaseURL selects the Postgres-backed stores; empty keeps the
	// in-memory stores (dev/test).
	DatabaseURL string

	// RedisURL enables the Redis AI-risk cache and rate-limit buckets.
	RedisURL string

	// KafkaBrokers enables the audit publisher when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	// ChainRegistryURL points at the on-chain registry's read-only
	// validation endpoint.
	ChainRegistryURL     string
	ChainRegistryTimeout time.Duration

	// AIRiskURL points at the external risk-assessment service.
	AIRiskURL     string
	AIRiskTimeout time.Duration

	ScanTokenKey     string
	RateLimitEnabled bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                 envOr("VERITAG_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("VERITAG_DATABASE_URL"),
		RedisURL:             os.Getenv("VERITAG_REDIS_URL"),
		AuditTopic:           envOr("VERITAG_AUDIT_TOPIC", "veritag.scan-audit"),
		ChainRegistryURL:     os.Getenv("VERITAG_CHAIN_REGISTRY_URL"),
		ChainRegistryTimeout: durationOr("VERITAG_CHAIN_TIMEOUT", 3*time.Second),
		AIRiskURL:            os.Getenv("VERITAG_AI_RISK_URL"),
		AIRiskTimeout:        durationOr("VERITAG_AI_TIMEOUT", 5*time.Second),
		ScanTokenKey:         envOr("VERITAG_SCAN_TOKEN_KEY", "dev-scan-token-key-change-in-production"),
		RateLimitEnabled:     os.Getenv("VERITAG_RATE_LIMIT_DISABLED") != "true",
	}
	if brokers := os.Getenv("VERITAG_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
