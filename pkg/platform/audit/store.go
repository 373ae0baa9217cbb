package audit

import "context"

// Store is an append-only audit sink. Implementations must preserve append
// order per decision id.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByDecision(ctx context.Context, decisionID string) ([]Event, error)
}

// Emitter is the narrow interface services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
