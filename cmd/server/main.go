package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caregate/internal/assessment"
	"caregate/internal/assessment/cache"
	assessmenthandler "caregate/internal/assessment/handler"
	assessmentmetrics "caregate/internal/assessment/metrics"
	"caregate/internal/assessment/ports"
	"caregate/internal/assessment/store"
	"caregate/internal/confidence"
	"caregate/internal/domain"
	"caregate/internal/gate"
	"caregate/internal/knowledge"
	"caregate/internal/platform/config"
	"caregate/internal/platform/httpserver"
	"caregate/internal/platform/logger"
	platformredis "caregate/internal/platform/redis"
	"caregate/internal/retrieval"
	"caregate/internal/scoring"
	auditkafka "caregate/pkg/platform/audit/kafka"
	auditpublisher "caregate/pkg/platform/audit/publisher"
	auditmemory "caregate/pkg/platform/audit/store/memory"
	"caregate/pkg/platform/middleware/requestid"
	"caregate/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	// Knowledge store with the built-in corpus; query and document vectors
	// share the embedder's space.
	embedder := knowledge.NewHashingEmbedder(64)
	docs, err := knowledge.Seed(ctx, embedder)
	if err != nil {
		log.Error("seed knowledge corpus", "error", err)
		os.Exit(1)
	}
	knowledgeStore := knowledge.NewInMemoryStore(docs)

	retriever := retrieval.New(knowledgeStore, embedder, retrieval.Config{
		TopK:         cfg.Assessment.TopK,
		MinRelevance: cfg.Assessment.MinRelevance,
		Budget:       cfg.Assessment.RetrievalBudget,
	}, log)

	engine := scoring.NewEngine(scoring.Config{
		Questions:         scoring.DefaultQuestions(),
		CategoryWeights:   scoring.DefaultCategoryWeights(),
		CompletenessFloor: cfg.Assessment.CompletenessFloor,
	})

	// Decision store: postgres when configured, memory otherwise.
	var decisionStore ports.Store = store.NewInMemoryStore()
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		decisionStore = store.NewPostgresStore(pool)
	}

	// Result cache: redis when configured, in-process otherwise.
	var resultCache ports.Cache = cache.NewInMemoryCache()
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(config.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		resultCache = cache.NewRedisCache(redisClient.Client)
	}

	// Audit sink: Kafka when brokers are configured, local memory log
	// otherwise. Emission happens on every state transition either way.
	var auditEmitter ports.AuditPort
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := auditkafka.New(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditEmitter = kafkaPublisher
	} else {
		pub := auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(), auditpublisher.WithAsyncBuffer(256))
		defer pub.Close()
		auditEmitter = pub
	}

	m := assessmentmetrics.New()
	service, err := assessment.New(
		engine,
		scoring.NewFallback(),
		scoring.NewLexiconExtractor(),
		retriever,
		confidence.New(confidence.DefaultWeights()),
		gate.New(cfg.Assessment.ReviewThreshold, cfg.Assessment.HighRiskThreshold),
		decisionStore,
		resultCache,
		auditEmitter,
		log,
		m,
		assessment.Config{
			ScreeningSLA:    cfg.Assessment.ScreeningSLA,
			ClinicalNoteSLA: cfg.Assessment.ClinicalNoteSLA,
			CacheTTL:        cfg.Assessment.CacheTTL,
		},
	)
	if err != nil {
		log.Error("wire assessment service", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	assessmenthandler.New(service, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting caregate", "addr", cfg.Addr, "kinds", []domain.PayloadKind{domain.KindScreening, domain.KindClinicalNote})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
