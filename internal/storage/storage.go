// Package storage defines the persistence interfaces for after-action
// reports and telemetry events. The simulation core never writes through
// these directly; the session layer archives finished reports and the
// telemetry emitter appends events when a store is attached.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ReportRecord is one archived after-action report. Payload carries the
// full JSON-encoded report; the scalar columns exist so reports can be
// listed and filtered without decoding.
type ReportRecord struct {
	ID          string
	SessionID   string
	ObjectiveID string
	Type        string
	EndState    string
	Success     bool
	TotalDays   int
	Progress    float64
	Payload     []byte
	CreatedAt   time.Time
}

// ReportStore persists after-action reports.
type ReportStore interface {
	AppendReport(ctx context.Context, record ReportRecord) error
	GetReport(ctx context.Context, id string) (ReportRecord, error)
	ListReports(ctx context.Context, sessionID string) ([]ReportRecord, error)
}

// TelemetryEvent is one operational telemetry record.
type TelemetryEvent struct {
	Name       string
	Severity   string
	SessionID  string
	Attributes map[string]string
	Timestamp  time.Time
}

// TelemetryStore persists telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
}
