package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/ironfront/internal/storage"
)

type captureStore struct {
	events []storage.TelemetryEvent
}

func (s *captureStore) AppendTelemetryEvent(_ context.Context, event storage.TelemetryEvent) error {
	s.events = append(s.events, event)
	return nil
}

func TestEmitStampsTimestamp(t *testing.T) {
	store := &captureStore{}
	emitter := NewEmitter(store)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	emitter.clock = func() time.Time { return now }

	err := emitter.Emit(context.Background(), storage.TelemetryEvent{
		Name:     "operation.started",
		Severity: SeverityInfo,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(store.events) != 1 {
		t.Fatalf("stored %d events, want 1", len(store.events))
	}
	if !store.events[0].Timestamp.Equal(now) {
		t.Fatalf("timestamp = %v, want %v", store.events[0].Timestamp, now)
	}
}

func TestEmitKeepsExplicitTimestamp(t *testing.T) {
	store := &captureStore{}
	emitter := NewEmitter(store)
	stamp := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), storage.TelemetryEvent{
		Name:      "phase.completed",
		Severity:  SeverityInfo,
		Timestamp: stamp,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !store.events[0].Timestamp.Equal(stamp) {
		t.Fatalf("timestamp = %v, want %v", store.events[0].Timestamp, stamp)
	}
}

func TestEmitNilEmitterAndStore(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{Name: "x"}); err != nil {
		t.Fatalf("nil emitter: %v", err)
	}
	emitter = NewEmitter(nil)
	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{Name: "x"}); err != nil {
		t.Fatalf("nil store: %v", err)
	}
}
