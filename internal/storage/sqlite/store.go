// Package sqlite provides the SQLite-backed report archive and telemetry
// log.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/ironfront/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/ironfront/internal/storage"
	"github.com/louisbranch/ironfront/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for reports and telemetry.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path, applying schema
// migrations before returning.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// AppendReport persists one after-action report record.
func (s *Store) AppendReport(ctx context.Context, record storage.ReportRecord) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("sqlite store is not initialized")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("report id is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO reports (id, session_id, objective_id, op_type, end_state, success, total_days, progress, payload, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.SessionID, record.ObjectiveID, record.Type, record.EndState,
		boolToInt(record.Success), record.TotalDays, record.Progress, record.Payload,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport returns one report record by id.
func (s *Store) GetReport(ctx context.Context, id string) (storage.ReportRecord, error) {
	if s == nil || s.sqlDB == nil {
		return storage.ReportRecord{}, fmt.Errorf("sqlite store is not initialized")
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, session_id, objective_id, op_type, end_state, success, total_days, progress, payload, created_at
FROM reports WHERE id = ?`, id)
	record, err := scanReport(row.Scan)
	if err == sql.ErrNoRows {
		return storage.ReportRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ReportRecord{}, fmt.Errorf("scan report: %w", err)
	}
	return record, nil
}

// ListReports returns every report archived for a session, oldest first.
func (s *Store) ListReports(ctx context.Context, sessionID string) ([]storage.ReportRecord, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("sqlite store is not initialized")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, session_id, objective_id, op_type, end_state, success, total_days, progress, payload, created_at
FROM reports WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var records []storage.ReportRecord
	for rows.Next() {
		record, err := scanReport(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return records, nil
}

// AppendTelemetryEvent persists one telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("sqlite store is not initialized")
	}
	attrs, err := encodeAttributes(event.Attributes)
	if err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (name, severity, session_id, attributes, created_at)
VALUES (?, ?, ?, ?, ?)`,
		event.Name, event.Severity, event.SessionID, attrs, toMillis(event.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

func scanReport(scan func(dest ...any) error) (storage.ReportRecord, error) {
	var (
		record    storage.ReportRecord
		success   int
		createdAt int64
	)
	if err := scan(
		&record.ID, &record.SessionID, &record.ObjectiveID, &record.Type, &record.EndState,
		&success, &record.TotalDays, &record.Progress, &record.Payload, &createdAt,
	); err != nil {
		return storage.ReportRecord{}, err
	}
	record.Success = success != 0
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

func encodeAttributes(attrs map[string]string) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attributes: %w", err)
	}
	return string(encoded), nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
