// Package ports defines the capability interfaces the orchestrator depends
// on, kept here to preserve hexagonal boundaries.
package ports

import (
	"context"
	"time"

	"caregate/internal/domain"
	audit "caregate/pkg/platform/audit"

	"github.com/google/uuid"
)

// AuditPort emits audit events. Matches audit.Emitter.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Store persists decision records. Update applies compare-and-swap on the
// expected current state so concurrent transitions have a single winner.
type Store interface {
	Create(ctx context.Context, rec *domain.DecisionRecord) error
	Get(ctx context.Context, id uuid.UUID) (*domain.DecisionRecord, error)
	Update(ctx context.Context, rec *domain.DecisionRecord, expect domain.DecisionState) error
}

// Cache is the optional shared result cache, keyed by a hash of normalized
// input. An optimization only: callers log cache errors and continue.
type Cache interface {
	Get(ctx context.Context, key string) (*domain.DecisionRecord, bool, error)
	Put(ctx context.Context, key string, rec *domain.DecisionRecord, ttl time.Duration) error
}
