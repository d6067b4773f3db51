package vectorindex

import (
	"context"

	"github.com/nversa/docchat/internal/domain"
)

// Index stores (vector, text, metadata) records and answers nearest-neighbor
// queries. Implementations must be safe for concurrent upsert and query:
// many ingestion workers write while query pipelines read, with no external
// locking.
type Index interface {
	// Ensure prepares the backing collection for the configured dimension.
	Ensure(ctx context.Context) error

	// Upsert writes records in one logical batch. Replaying the same batch
	// must be idempotent: record identity is derived from source document
	// and chunk ordinal, never generated fresh.
	Upsert(ctx context.Context, records []domain.IndexRecord) error

	// Query returns up to k records nearest to vector, ordered by
	// descending similarity. Only records embedded with model are
	// considered; a mixed-model index never silently serves stale vectors.
	Query(ctx context.Context, vector []float32, k int, model string) ([]domain.ScoredText, error)

	// DeleteBySource removes every record belonging to one document.
	DeleteBySource(ctx context.Context, sourceDocument string) error

	Close() error
}
