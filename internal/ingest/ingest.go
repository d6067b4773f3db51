// Package ingest drives one upload job from "received" to "indexed":
// load -> chunk -> embed -> upsert. Steps within a job run strictly in
// order; many jobs run concurrently in the worker pool.
package ingest

import (
	"context"
	"path/filepath"
	"time"

	"github.com/nversa/docchat/internal/chunker"
	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/embedding"
	"github.com/nversa/docchat/internal/metrics"
	"github.com/nversa/docchat/internal/vectorindex"
	"github.com/nversa/docchat/pkg/logging"
)

// Loader abstracts text extraction so tests can substitute fixtures.
type Loader interface {
	Load(path string) (string, error)
}

type Pipeline struct {
	loader   Loader
	embedder embedding.Embedder
	index    vectorindex.Index
	opts     chunker.Options
	logger   *logging.Logger
}

func New(loader Loader, embedder embedding.Embedder, index vectorindex.Index, opts chunker.Options) *Pipeline {
	return &Pipeline{
		loader:   loader,
		embedder: embedder,
		index:    index,
		opts:     opts,
		logger:   logging.NewLogger("ingest"),
	}
}

// Run processes one job. The returned error classifies the failure:
// load errors are permanent, embedding and index errors are retryable.
// Nothing is committed to the index until every chunk has embedded, so a
// mid-pipeline failure never leaves a partially indexed document, and
// replaying the job converges on the same stored state.
func (p *Pipeline) Run(ctx context.Context, job domain.UploadJob) error {
	log := p.logger.With("traceId", job.TraceID, "jobId", job.ID, "document", job.OriginalName)

	text, err := p.loader.Load(job.SourcePath)
	if err != nil {
		return err
	}

	source := filepath.Base(job.SourcePath)
	chunks := chunker.Split(text, source, p.opts)
	log.Debug("document chunked", "chunks", len(chunks))
	if len(chunks) == 0 {
		log.Warn("document produced no chunks, nothing to index")
		return nil
	}

	// Embed every chunk in ordinal order before any index write.
	records := make([]domain.IndexRecord, 0, len(chunks))
	for start := 0; start < len(chunks); start += config.EmbedBatchSize {
		end := start + config.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := p.embedBatch(ctx, texts)
		if err != nil {
			return err
		}
		for i, c := range batch {
			records = append(records, domain.IndexRecord{
				Vector:         vectors[i],
				Text:           c.Text,
				SourceDocument: c.SourceDocument,
				Ordinal:        c.Ordinal,
				Model:          p.embedder.Model(),
			})
		}
	}

	// Drop leftovers from an earlier ingest of the same document, then
	// commit the whole batch. Record identity is derived from source and
	// ordinal, so a replayed commit overwrites rather than duplicates.
	if err := p.deleteStale(ctx, source); err != nil {
		return err
	}
	if err := p.upsert(ctx, records); err != nil {
		return err
	}

	log.Info("document indexed", "chunks", len(records))
	return nil
}

func (p *Pipeline) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.CallTimeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()
	return p.embedder.EmbedBatch(callCtx, texts)
}

func (p *Pipeline) deleteStale(ctx context.Context, source string) error {
	callCtx, cancel := context.WithTimeout(ctx, config.CallTimeout)
	defer cancel()
	return p.index.DeleteBySource(callCtx, source)
}

func (p *Pipeline) upsert(ctx context.Context, records []domain.IndexRecord) error {
	callCtx, cancel := context.WithTimeout(ctx, config.CallTimeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("index_upsert", time.Since(start)) }()
	return p.index.Upsert(callCtx, records)
}
