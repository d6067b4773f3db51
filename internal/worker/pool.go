// Package worker consumes the job queue with a bounded pool of handlers and
// owns the per-job state machine: Received -> Processing -> {Indexed |
// Retrying -> Processing | DeadLettered}.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/metrics"
	"github.com/nversa/docchat/internal/queue"
	"github.com/nversa/docchat/pkg/logging"
)

// Ingestor runs the load-chunk-embed-upsert pipeline for one job.
type Ingestor interface {
	Run(ctx context.Context, job domain.UploadJob) error
}

type Pool struct {
	queue    queue.Queue
	ingestor Ingestor
	size     int
	logger   *logging.Logger

	// Overridable in tests; defaults to the configured policy.
	maxAttempts int
	backoff     func(attempts int) time.Duration
	jobTimeout  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(q queue.Queue, ingestor Ingestor, size int) *Pool {
	if size <= 0 {
		size = config.MaxInFlightJobs
	}
	return &Pool{
		queue:       q,
		ingestor:    ingestor,
		size:        size,
		logger:      logging.NewLogger("worker_pool"),
		maxAttempts: config.MaxJobAttempts,
		backoff:     domain.BackoffDelay,
		jobTimeout:  config.JobTimeout,
	}
}

// Start launches the handler goroutines. Each handler blocks on the queue,
// so pool size bounds the number of jobs in flight.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.logger.Info("starting ingestion workers", "count", p.size)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(runCtx)
	}
}

// Stop cancels the handlers and waits for in-flight jobs to settle.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("ingestion workers stopped")
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", "error", err)
			continue
		}
		p.handle(ctx, job)
	}
}

func (p *Pool) handle(ctx context.Context, job domain.UploadJob) {
	metrics.IncrementActiveWorkers()
	defer metrics.DecrementActiveWorkers()
	metrics.DecrementJobsInQueue()

	job.Attempts++
	job.State = domain.JobStateProcessing
	log := p.logger.With("traceId", job.TraceID, "jobId", job.ID, "document", job.OriginalName, "attempt", job.Attempts)
	if err := p.queue.SaveState(ctx, job); err != nil {
		log.Error("failed to record processing state", "error", err)
	}

	jobCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	start := time.Now()
	err := p.ingestor.Run(jobCtx, job)

	switch {
	case err == nil:
		job.State = domain.JobStateIndexed
		job.LastError = ""
		job.EndTime = time.Now()
		if ackErr := p.queue.Ack(ctx, job); ackErr != nil {
			// The queue will redeliver; replay is idempotent.
			log.Error("ack failed, job will be redelivered", "error", ackErr)
		}
		metrics.CaptureJobMetrics("indexed", time.Since(start))
		log.Info("job indexed", "elapsed", time.Since(start))

	case domain.Permanent(err):
		job.EndTime = time.Now()
		if dlErr := p.queue.DeadLetter(ctx, job, err.Error()); dlErr != nil {
			log.Error("dead-letter failed", "error", dlErr)
		}
		metrics.IncrementDeadLettered()
		metrics.CaptureJobMetrics("dead_lettered", time.Since(start))
		log.Error("permanent failure, job dead-lettered", "error", err)

	case job.Attempts >= p.maxAttempts:
		job.EndTime = time.Now()
		if dlErr := p.queue.DeadLetter(ctx, job, "retries exhausted: "+err.Error()); dlErr != nil {
			log.Error("dead-letter failed", "error", dlErr)
		}
		metrics.IncrementDeadLettered()
		metrics.CaptureJobMetrics("dead_lettered", time.Since(start))
		log.Error("retries exhausted, job dead-lettered", "error", err)

	default:
		job.State = domain.JobStateRetrying
		job.LastError = err.Error()
		delay := p.backoff(job.Attempts)
		if rErr := p.queue.Retry(ctx, job, delay); rErr != nil {
			log.Error("retry scheduling failed, job will be redelivered", "error", rErr)
		}
		metrics.IncrementJobsInQueue()
		metrics.CaptureJobMetrics("retrying", time.Since(start))
		log.Warn("transient failure, job requeued", "error", err, "delay", delay)
	}
}
