package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDocumentRepo_GetNotFound(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	doc, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if doc != nil {
		t.Errorf("Get() = %+v, want nil", doc)
	}
}

func TestDocumentRepo_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(newTestDB(t))
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	doc := &DocumentRecord{
		Source:      "uk_companies_act",
		ContentHash: "abc123",
		Status:      StatusComplete,
		ChunkCount:  4,
		RecordCount: 6,
	}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "uk_companies_act")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ContentHash != "abc123" || got.Status != StatusComplete || got.ChunkCount != 4 || got.RecordCount != 6 {
		t.Errorf("Get() = %+v, want fields of %+v", got, doc)
	}
	if !got.UpdatedAt.Equal(fixed) {
		t.Errorf("Get() UpdatedAt = %v, want %v", got.UpdatedAt, fixed)
	}

	// Update replaces status and error
	doc.Status = StatusFailed
	doc.Error = "embedding service unavailable"
	doc.RecordCount = 0
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}

	got, err = repo.Get(ctx, "uk_companies_act")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusFailed || got.Error != "embedding service unavailable" || got.RecordCount != 0 {
		t.Errorf("Get() after update = %+v", got)
	}
}

func TestDocumentRepo_UpsertRequiresSource(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	if err := repo.Upsert(context.Background(), &DocumentRecord{ContentHash: "x"}); err == nil {
		t.Error("Upsert() expected error for empty source")
	}
}

func TestDocumentRepo_ListAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(newTestDB(t))

	for _, source := range []string{"b_act", "a_act", "c_act"} {
		if err := repo.Upsert(ctx, &DocumentRecord{Source: source, ContentHash: "h", Status: StatusComplete}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", source, err)
		}
	}

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"a_act", "b_act", "c_act"}
	if len(docs) != len(want) {
		t.Fatalf("List() returned %d documents, want %d", len(docs), len(want))
	}
	for i, doc := range docs {
		if doc.Source != want[i] {
			t.Errorf("List()[%d].Source = %q, want %q", i, doc.Source, want[i])
		}
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	docs, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("List() after DeleteAll returned %d documents, want 0", len(docs))
	}
}
