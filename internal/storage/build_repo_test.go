package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBuildRepo_LatestEmpty(t *testing.T) {
	repo := NewBuildRepo(newTestDB(t))

	if _, err := repo.Latest(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest() error = %v, want ErrNotFound", err)
	}
}

func TestBuildRepo_InsertAndLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildRepo(newTestDB(t))

	base := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		// Sub-second steps must still order correctly.
		return base.Add(time.Duration(tick) * 100 * time.Millisecond)
	}

	first := &BuildRecord{VectorCount: 10, Dimension: 768, LogSHA256: "l1", IndexSHA256: "i1", MetaSHA256: "m1"}
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if first.ID == "" {
		t.Error("Insert() should assign an ID")
	}

	second := &BuildRecord{VectorCount: 12, Dimension: 768, LogSHA256: "l2", IndexSHA256: "i2", MetaSHA256: "m2"}
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest().ID = %q, want %q", latest.ID, second.ID)
	}
	if latest.VectorCount != 12 || latest.IndexSHA256 != "i2" {
		t.Errorf("Latest() = %+v, want %+v", latest, second)
	}
	if !latest.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("Latest().CreatedAt = %v, want %v", latest.CreatedAt, second.CreatedAt)
	}
}

func TestBuildRepo_InsertDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildRepo(newTestDB(t))

	build := &BuildRecord{ID: "fixed-id", VectorCount: 1, Dimension: 3}
	if err := repo.Insert(ctx, build); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := repo.Insert(ctx, &BuildRecord{ID: "fixed-id", VectorCount: 1, Dimension: 3}); err == nil {
		t.Error("Insert() expected error for duplicate ID")
	}
}
