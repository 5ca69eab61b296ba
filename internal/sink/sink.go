package sink

import (
	"context"

	"github.com/velic0/game-telemetry/internal/domain"
)

// Sink delivers enriched telemetry records to a destination. A nil error
// means the destination acknowledged the record(s).
type Sink interface {
	// Send delivers a single event.
	Send(ctx context.Context, e domain.Event) error

	// SendBatch delivers a chunk in one call. It fails if any record in
	// the chunk is rejected by the destination.
	SendBatch(ctx context.Context, events []domain.Event) error

	// Healthy reports whether the destination is reachable and active.
	Healthy(ctx context.Context) bool
}
