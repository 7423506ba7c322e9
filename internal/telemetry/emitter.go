// Package telemetry records operational events from the simulation
// lifecycle: operations started, phases completed, reports finalized.
package telemetry

import (
	"context"
	"time"

	"github.com/louisbranch/ironfront/internal/storage"
)

// Severity levels for telemetry events.
const (
	SeverityInfo  = "INFO"
	SeverityWarn  = "WARN"
	SeverityError = "ERROR"
)

// Emitter records telemetry events to an attached store. A nil emitter or
// nil store makes every emit a no-op, so callers never guard their calls.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a telemetry emitter backed by store.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records one telemetry event, stamping the current time when the
// event carries none.
func (e *Emitter) Emit(ctx context.Context, event storage.TelemetryEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		clock := e.clock
		if clock == nil {
			clock = time.Now
		}
		event.Timestamp = clock().UTC()
	}
	return e.store.AppendTelemetryEvent(ctx, event)
}
