package memoryindex

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nversa/docchat/internal/domain"
)

func rec(source string, ordinal int, vector []float32, text string) domain.IndexRecord {
	return domain.IndexRecord{
		Vector:         vector,
		Text:           text,
		SourceDocument: source,
		Ordinal:        ordinal,
		Model:          "stub-model",
	}
}

func TestUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := New(2)

	err := s.Upsert(ctx, []domain.IndexRecord{
		rec("a.pdf", 0, []float32{1, 0}, "east"),
		rec("a.pdf", 1, []float32{0, 1}, "north"),
		rec("b.pdf", 0, []float32{0.9, 0.1}, "mostly east"),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hits, err := s.Query(ctx, []float32{1, 0}, 2, "stub-model")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Text != "east" {
		t.Errorf("nearest hit should be east, got %q", hits[0].Text)
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits must be ordered by descending score")
	}
}

func TestUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New(2)

	batch := []domain.IndexRecord{
		rec("a.pdf", 0, []float32{1, 0}, "chunk zero"),
		rec("a.pdf", 1, []float32{0, 1}, "chunk one"),
	}
	for i := 0; i < 3; i++ {
		if err := s.Upsert(ctx, batch); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	if s.Len() != 2 {
		t.Errorf("replayed upsert duplicated records: len=%d", s.Len())
	}
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := New(3)

	err := s.Upsert(ctx, []domain.IndexRecord{rec("a.pdf", 0, []float32{1, 0}, "short")})
	if !errors.Is(err, domain.ErrIndex) {
		t.Errorf("expected index error on dimension mismatch, got %v", err)
	}

	_, err = s.Query(ctx, []float32{1, 0}, 1, "stub-model")
	if !errors.Is(err, domain.ErrIndex) {
		t.Errorf("expected index error on query dimension mismatch, got %v", err)
	}
}

func TestModelFilter(t *testing.T) {
	ctx := context.Background()
	s := New(2)

	r := rec("a.pdf", 0, []float32{1, 0}, "hit")
	r.Model = "other-model"
	if err := s.Upsert(ctx, []domain.IndexRecord{r}); err != nil {
		t.Fatal(err)
	}

	hits, err := s.Query(ctx, []float32{1, 0}, 3, "stub-model")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("records from a different embedding model must not be returned, got %d", len(hits))
	}
}

func TestDeleteBySource(t *testing.T) {
	ctx := context.Background()
	s := New(1)

	s.Upsert(ctx, []domain.IndexRecord{
		rec("keep.pdf", 0, []float32{1}, "keep"),
		rec("drop.pdf", 0, []float32{1}, "drop"),
		rec("drop.pdf", 1, []float32{1}, "drop too"),
	})
	if err := s.DeleteBySource(ctx, "drop.pdf"); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 record after delete, got %d", s.Len())
	}
}

func TestConcurrentUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := New(2)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = s.Upsert(ctx, []domain.IndexRecord{rec("doc.pdf", n, []float32{1, 0}, "text")})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.Query(ctx, []float32{0, 1}, 3, "stub-model")
		}()
	}
	wg.Wait()
}
