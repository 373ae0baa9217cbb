package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr         string
	RedisURL     string
	PostgresURL  string
	KafkaBrokers []string
	AuditTopic   string

	Assessment Assessment
}

// Assessment holds the pipeline budgets and gating thresholds. Defaults
// follow the clinical SLAs: 30s for screening scoring, 2min for clinical-note
// analysis, 1s for guideline retrieval.
type Assessment struct {
	ScreeningSLA    time.Duration
	ClinicalNoteSLA time.Duration
	RetrievalBudget time.Duration

	TopK              int
	MinRelevance      float64
	ReviewThreshold   float64
	HighRiskThreshold float64
	CompletenessFloor float64
	CacheTTL          time.Duration
}

// RedisConfig tunes the optional shared cache client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CAREGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var brokers []string
	if raw := os.Getenv("CAREGATE_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("CAREGATE_AUDIT_TOPIC")
	if topic == "" {
		topic = "caregate.audit.decisions"
	}

	return Server{
		Addr:         addr,
		RedisURL:     os.Getenv("CAREGATE_REDIS_URL"),
		PostgresURL:  os.Getenv("CAREGATE_POSTGRES_URL"),
		KafkaBrokers: brokers,
		AuditTopic:   topic,
		Assessment:   assessmentFromEnv(),
	}
}

func assessmentFromEnv() Assessment {
	return Assessment{
		ScreeningSLA:      envDuration("CAREGATE_SCREENING_SLA", 30*time.Second),
		ClinicalNoteSLA:   envDuration("CAREGATE_CLINICAL_NOTE_SLA", 2*time.Minute),
		RetrievalBudget:   envDuration("CAREGATE_RETRIEVAL_BUDGET", time.Second),
		TopK:              envInt("CAREGATE_RETRIEVAL_TOP_K", 10),
		MinRelevance:      envFloat("CAREGATE_MIN_RELEVANCE", 0.6),
		ReviewThreshold:   envFloat("CAREGATE_REVIEW_THRESHOLD", 0.7),
		HighRiskThreshold: envFloat("CAREGATE_HIGH_RISK_THRESHOLD", 70),
		CompletenessFloor: envFloat("CAREGATE_COMPLETENESS_FLOOR", 0.5),
		CacheTTL:          envDuration("CAREGATE_CACHE_TTL", 15*time.Minute),
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return fallback
}
