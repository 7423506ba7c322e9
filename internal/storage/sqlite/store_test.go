package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/ironfront/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReportRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := storage.ReportRecord{
		ID:          "rep-1",
		SessionID:   "sess-1",
		ObjectiveID: "obj-ridge",
		Type:        "campaign",
		EndState:    "seize",
		Success:     true,
		TotalDays:   14,
		Progress:    0.82,
		Payload:     []byte(`{"operation_id":"op-1"}`),
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.AppendReport(ctx, record); err != nil {
		t.Fatalf("append report: %v", err)
	}

	got, err := store.GetReport(ctx, "rep-1")
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.SessionID != record.SessionID || got.Type != record.Type || !got.Success {
		t.Fatalf("got %+v, want %+v", got, record)
	}
	if got.Progress != record.Progress || got.TotalDays != record.TotalDays {
		t.Fatalf("got %+v, want %+v", got, record)
	}
	if string(got.Payload) != string(record.Payload) {
		t.Fatalf("payload = %q, want %q", got.Payload, record.Payload)
	}
	if !got.CreatedAt.Equal(record.CreatedAt) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, record.CreatedAt)
	}
}

func TestGetReportNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetReport(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendReportRequiresID(t *testing.T) {
	store := openTestStore(t)
	if err := store.AppendReport(context.Background(), storage.ReportRecord{}); err == nil {
		t.Fatal("expected error for missing report id")
	}
}

func TestListReportsOrdersByCreation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"rep-b", "rep-a", "rep-c"} {
		record := storage.ReportRecord{
			ID:          id,
			SessionID:   "sess-1",
			ObjectiveID: "obj-ridge",
			Type:        "raid",
			EndState:    "hold",
			Payload:     []byte("{}"),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.AppendReport(ctx, record); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := store.AppendReport(ctx, storage.ReportRecord{
		ID: "rep-other", SessionID: "sess-2", Payload: []byte("{}"), CreatedAt: base,
	}); err != nil {
		t.Fatalf("append other session: %v", err)
	}

	records, err := store.ListReports(ctx, "sess-1")
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("listed %d reports, want 3", len(records))
	}
	want := []string{"rep-b", "rep-a", "rep-c"}
	for i, record := range records {
		if record.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, record.ID, want[i])
		}
	}
}

func TestAppendTelemetryEvent(t *testing.T) {
	store := openTestStore(t)
	err := store.AppendTelemetryEvent(context.Background(), storage.TelemetryEvent{
		Name:      "operation.finalized",
		Severity:  "INFO",
		SessionID: "sess-1",
		Attributes: map[string]string{
			"operation_id": "op-1",
			"end_state":    "seize",
		},
	})
	if err != nil {
		t.Fatalf("append telemetry event: %v", err)
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
	if err := store.AppendReport(context.Background(), storage.ReportRecord{ID: "x"}); err == nil {
		t.Fatal("nil store append should error")
	}
}
