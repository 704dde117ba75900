package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/macrolog/internal/model"
)

func TestSnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	ss := NewSnapshotStore(setupTestDB(t))

	snap, err := ss.Create(ctx, "macrolog/a.db.enc", time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap.Status != model.SnapshotPending {
		t.Errorf("status = %q, want pending", snap.Status)
	}

	if err := ss.MarkCompleted(ctx, snap.ID, 4096); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	got, err := ss.GetByID(ctx, snap.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.SnapshotCompleted || got.SizeBytes != 4096 || got.CompletedAt == nil {
		t.Errorf("snapshot = %+v", got)
	}

	failed, _ := ss.Create(ctx, "macrolog/b.db.enc", time.Now())
	if err := ss.MarkFailed(ctx, failed.ID, "upload: timeout"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	got, _ = ss.GetByID(ctx, failed.ID)
	if got.Status != model.SnapshotFailed || got.ErrorMessage != "upload: timeout" {
		t.Errorf("snapshot = %+v", got)
	}

	if missing, err := ss.GetByID(ctx, "nope"); err != nil || missing != nil {
		t.Errorf("GetByID(missing) = %v, %v", missing, err)
	}
}

func TestSnapshotDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	ss := NewSnapshotStore(setupTestDB(t))

	now := time.Now()
	if _, err := ss.Create(ctx, "old-1", now.Add(-72*time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ss.Create(ctx, "old-2", now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ss.Create(ctx, "fresh", now); err != nil {
		t.Fatalf("create: %v", err)
	}

	keys, err := ss.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("deleted keys = %v, want 2", keys)
	}

	left, err := ss.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 1 || left[0].ObjectKey != "fresh" {
		t.Errorf("remaining = %+v, want only fresh", left)
	}
}
