package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"veritag/internal/airisk"
	airiskmetrics "veritag/internal/airisk/metrics"
	airiskstore "veritag/internal/airisk/store"
	"veritag/internal/chain"
	chainmetrics "veritag/internal/chain/metrics"
	"veritag/internal/platform/config"
	"veritag/internal/platform/httpserver"
	"veritag/internal/platform/logger"
	platformredis "veritag/internal/platform/redis"
	"veritag/internal/ratelimit"
	ratelimitmetrics "veritag/internal/ratelimit/metrics"
	ratelimitstore "veritag/internal/ratelimit/store"
	"veritag/internal/scan"
	scanmetrics "veritag/internal/scan/metrics"
	scanstore "veritag/internal/scan/store"
	tagstore "veritag/internal/tag/store"
	httptransport "veritag/internal/transport/http"
	"veritag/internal/verification"
	verificationhandler "veritag/internal/verification/handler"
	verificationmetrics "veritag/internal/verification/metrics"
	"veritag/pkg/platform/audit/publisher"
	kafkasink "veritag/pkg/platform/audit/sink/kafka"
	memorysink "veritag/pkg/platform/audit/sink/memory"
	"veritag/pkg/platform/circuit"
	"veritag/pkg/platform/middleware/csrf"
	"veritag/pkg/platform/remote"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Relational stores. In-memory fallback keeps local development free of
	// infrastructure; production sets VERITAG_DATABASE_URL.
	var (
		db    *sql.DB
		tags  tagstore.TagStore
		scans scanstore.ScanStore
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		tags = tagstore.NewPostgres(db)
		scans = scanstore.NewPostgres(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		tags = tagstore.NewInMemoryTagStore()
		scans = scanstore.NewInMemoryScanStore()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit trail. Kafka when brokers are configured, otherwise an in-process
	// sink so the event flow stays observable in development.
	var sink publisher.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := kafkasink.NewSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka sink init failed", "error", err)
			os.Exit(1)
		}
		sink = kafka
	} else {
		log.Warn("no kafka brokers configured, audit events stay in-process")
		sink = memorysink.NewSink()
	}
	pub := publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(1024),
		publisher.WithLogger(log),
	)
	defer pub.Close()

	// Remote dependencies degrade instead of failing verification: each gets
	// a timeout-bounded caller with a circuit breaker.
	chainCaller := remote.NewCaller("chain-registry", cfg.ChainRegistryTimeout, log,
		remote.WithBreaker(circuit.New("chain-registry")))
	reconciler := chain.NewReconciler(
		chain.NewHTTPClient(cfg.ChainRegistryURL),
		tags,
		chainCaller,
		log,
		chain.WithMetrics(chainmetrics.New()),
	)

	var cache airiskstore.CacheStore
	if redisClient != nil {
		cache = airiskstore.NewRedisCacheStore(redisClient)
	} else {
		cache = airiskstore.NewInMemoryCacheStore()
	}
	riskCaller := remote.NewCaller("ai-risk", cfg.AIRiskTimeout, log,
		remote.WithBreaker(circuit.New("ai-risk")))
	risk := airisk.NewService(
		airisk.NewHTTPClient(cfg.AIRiskURL),
		cache,
		riskCaller,
		log,
		airisk.WithMetrics(airiskmetrics.New()),
		airisk.WithTTL(config.AIRiskCacheTTL),
	)

	ledger := scan.NewLedger(scans,
		scan.WithLogger(log),
		scan.WithMetrics(scanmetrics.New()),
	)

	service := verification.NewService(tags, ledger, reconciler, risk, log,
		verification.WithMetrics(verificationmetrics.New()),
		verification.WithAudit(pub),
	)

	var buckets ratelimitstore.BucketStore
	if redisClient != nil {
		buckets = ratelimitstore.NewRedisBucketStore(redisClient)
	} else {
		buckets = ratelimitstore.NewInMemoryBucketStore()
	}
	limiter := ratelimit.New(buckets, log,
		ratelimit.WithMetrics(ratelimitmetrics.New()),
		ratelimit.WithDisabled(!cfg.RateLimitEnabled),
	)

	validator := csrf.New([]byte(cfg.ScanTokenKey), log)

	handler := verificationhandler.New(service, limiter, validator, log,
		verificationhandler.WithAudit(pub),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Verification: handler,
		DB:           db,
		Redis:        redisClient,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting veritag", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("veritag stopped")
}
