package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/macrolog/internal/model"
	"github.com/google/uuid"
)

type SnapshotStore struct {
	db DBTX
}

func NewSnapshotStore(db DBTX) *SnapshotStore {
	return &SnapshotStore{db: db}
}

const snapshotCols = `id, object_key, size_bytes, status, error_message, created_at, completed_at`

func scanSnapshot(scanner interface{ Scan(...any) error }) (*model.Snapshot, error) {
	var s model.Snapshot
	var errMsg sql.NullString
	var completedAt sql.NullTime
	if err := scanner.Scan(&s.ID, &s.ObjectKey, &s.SizeBytes, &s.Status, &errMsg, &s.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	s.ErrorMessage = errMsg.String
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	return &s, nil
}

// Create records a pending snapshot stored under objectKey.
func (s *SnapshotStore) Create(ctx context.Context, objectKey string, createdAt time.Time) (*model.Snapshot, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshot (id, object_key, status, created_at) VALUES (?, ?, ?, ?)`,
		id, objectKey, model.SnapshotPending, createdAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *SnapshotStore) GetByID(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotCols+` FROM snapshot WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// List returns the newest snapshots first.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+snapshotCols+` FROM snapshot ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

func (s *SnapshotStore) MarkCompleted(ctx context.Context, id string, sizeBytes int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE snapshot SET status = ?, size_bytes = ?, error_message = NULL, completed_at = ? WHERE id = ?`,
		model.SnapshotCompleted, sizeBytes, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark snapshot completed: %w", err)
	}
	return nil
}

func (s *SnapshotStore) MarkFailed(ctx context.Context, id, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE snapshot SET status = ?, error_message = ? WHERE id = ?`,
		model.SnapshotFailed, message, id,
	)
	if err != nil {
		return fmt.Errorf("mark snapshot failed: %w", err)
	}
	return nil
}

// DeleteOlderThan removes snapshot records created before the cutoff and
// returns the object keys they pointed at.
func (s *SnapshotStore) DeleteOlderThan(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT object_key FROM snapshot WHERE created_at < ?`, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("select old snapshots: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan object key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshot WHERE created_at < ?`, before.UTC()); err != nil {
		return nil, fmt.Errorf("delete old snapshots: %w", err)
	}
	return keys, nil
}
