// Package store is the client's optional local cache: a queue of uploads
// that haven't yet reached the server, and an archive of completed laps in
// the columnar format shared with the server (internal/columnar). It
// exists so the uploader (internal/upload) can survive a process restart
// without losing a lap that hadn't finished uploading.
//
// It is grounded on the teacher's internal/db.DB: a thin *sql.DB wrapper,
// migrations applied through golang-migrate's iofs source against the
// modernc.org/sqlite driver, the same pair of dependencies the teacher
// uses for its own persistence layer.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/columnar"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a *sql.DB opened against a local sqlite file.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies any pending migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrateUp() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("store: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("store: migration instance: %w", err)
	}
	// Not calling m.Close(): the sqlite driver's Close tears down the
	// *sql.DB we manage separately, same caveat as the teacher's db.newMigrate.
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

// UploadKind distinguishes the two upload payload shapes.
type UploadKind string

const (
	UploadKindLap     UploadKind = "lap"
	UploadKindMetrics UploadKind = "metrics"
)

// PendingUpload is one row from the pending_uploads queue.
type PendingUpload struct {
	ID        int64
	Kind      UploadKind
	SessionID uuid.UUID
	LapID     uuid.UUID
	Payload   []byte
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// EnqueuePendingUpload records an upload that has not yet succeeded.
func (db *DB) EnqueuePendingUpload(ctx context.Context, kind UploadKind, sessionID, lapID uuid.UUID, payload []byte) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO pending_uploads (kind, session_id, lap_id, payload) VALUES (?, ?, ?, ?)`,
		string(kind), sessionID.String(), lapID.String(), payload,
	)
	if err != nil {
		return 0, fmt.Errorf("store: enqueue pending upload: %w", err)
	}
	return res.LastInsertId()
}

// ListPendingUploads returns every queued upload of the given kind, oldest
// first, so a restart-time retry sweep processes them in original order.
func (db *DB) ListPendingUploads(ctx context.Context, kind UploadKind) ([]PendingUpload, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, kind, session_id, lap_id, payload, attempts, last_error, created_at
		 FROM pending_uploads WHERE kind = ? ORDER BY id ASC`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("store: list pending uploads: %w", err)
	}
	defer rows.Close()

	var out []PendingUpload
	for rows.Next() {
		var (
			p                  PendingUpload
			kindStr            string
			sessionStr, lapStr string
			lastError          sql.NullString
		)
		if err := rows.Scan(&p.ID, &kindStr, &sessionStr, &lapStr, &p.Payload, &p.Attempts, &lastError, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan pending upload: %w", err)
		}
		p.Kind = UploadKind(kindStr)
		p.LastError = lastError.String
		if p.SessionID, err = uuid.Parse(sessionStr); err != nil {
			return nil, fmt.Errorf("store: parse session id: %w", err)
		}
		if p.LapID, err = uuid.Parse(lapStr); err != nil {
			return nil, fmt.Errorf("store: parse lap id: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordUploadFailure increments the attempt counter and stores the error
// message, for observability and eventual give-up policy decisions made by
// the caller.
func (db *DB) RecordUploadFailure(ctx context.Context, id int64, cause error) error {
	_, err := db.ExecContext(ctx,
		`UPDATE pending_uploads SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		cause.Error(), id,
	)
	if err != nil {
		return fmt.Errorf("store: record upload failure: %w", err)
	}
	return nil
}

// DeletePendingUpload removes a row once its upload has succeeded.
func (db *DB) DeletePendingUpload(ctx context.Context, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM pending_uploads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete pending upload %d: %w", id, err)
	}
	return nil
}

// DeletePendingUploadByLapID removes the queued upload of the given kind
// for lapID, if any. It is a no-op (nil error) when no such row exists,
// since the caller (the upload result handler) cannot distinguish "already
// delivered" from "never queued" and shouldn't need to.
func (db *DB) DeletePendingUploadByLapID(ctx context.Context, kind UploadKind, lapID uuid.UUID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM pending_uploads WHERE kind = ? AND lap_id = ?`, string(kind), lapID.String())
	if err != nil {
		return fmt.Errorf("store: delete pending upload for lap %s: %w", lapID, err)
	}
	return nil
}

// ArchiveLap persists a lap's columnar encoding, keyed by lap id.
func (db *DB) ArchiveLap(ctx context.Context, cols columnar.Columns) error {
	blob, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("store: marshal columns: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO archived_laps (lap_id, session_id, lap_number, lap_time, columns) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(lap_id) DO UPDATE SET columns = excluded.columns`,
		cols.Header.LapID.String(), cols.Header.SessionID.String(), cols.Header.LapNumber, cols.Header.LapTime, blob,
	)
	if err != nil {
		return fmt.Errorf("store: archive lap %s: %w", cols.Header.LapID, err)
	}
	return nil
}

// LoadArchivedLap retrieves a previously archived lap's columnar encoding.
func (db *DB) LoadArchivedLap(ctx context.Context, lapID uuid.UUID) (columnar.Columns, error) {
	var blob []byte
	err := db.QueryRowContext(ctx, `SELECT columns FROM archived_laps WHERE lap_id = ?`, lapID.String()).Scan(&blob)
	if err != nil {
		return columnar.Columns{}, fmt.Errorf("store: load archived lap %s: %w", lapID, err)
	}
	var cols columnar.Columns
	if err := json.Unmarshal(blob, &cols); err != nil {
		return columnar.Columns{}, fmt.Errorf("store: unmarshal archived lap %s: %w", lapID, err)
	}
	return cols, nil
}

// Close closes the underlying database, logging (rather than propagating)
// any error since it is typically called from a defer at process shutdown.
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		monitoring.Logf("store: close: %v", err)
	}
}
