// Package memqueue is a process-local queue used when Redis is unreachable.
// It honors the same delivery contract minus durability: jobs do not survive
// a process restart.
package memqueue

import (
	"context"
	"sync"
	"time"

	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/queue"
	"github.com/nversa/docchat/pkg/logging"
)

type Queue struct {
	pending chan domain.UploadJob
	logger  *logging.Logger

	mu     sync.RWMutex
	states map[string]domain.UploadJob
	dead   []domain.UploadJob
	timers []*time.Timer
	closed bool
}

func New(buffer int) *Queue {
	return &Queue{
		pending: make(chan domain.UploadJob, buffer),
		logger:  logging.NewLogger("mem_queue"),
		states:  make(map[string]domain.UploadJob),
	}
}

var _ queue.Queue = (*Queue)(nil)

func (q *Queue) Enqueue(ctx context.Context, job domain.UploadJob) error {
	job.State = domain.JobStateReceived
	q.setState(job)
	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Dequeue(ctx context.Context) (domain.UploadJob, error) {
	select {
	case job := <-q.pending:
		return job, nil
	case <-ctx.Done():
		return domain.UploadJob{}, ctx.Err()
	}
}

func (q *Queue) Ack(ctx context.Context, job domain.UploadJob) error {
	q.setState(job)
	return nil
}

func (q *Queue) Retry(ctx context.Context, job domain.UploadJob, delay time.Duration) error {
	q.setState(job)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	t := time.AfterFunc(delay, func() {
		q.mu.RLock()
		closed := q.closed
		q.mu.RUnlock()
		if closed {
			return
		}
		select {
		case q.pending <- job:
		default:
			// No room to redeliver; park the job instead of dropping it.
			q.DeadLetter(context.Background(), job, "retry redelivery failed: pending queue full")
		}
	})
	q.timers = append(q.timers, t)
	return nil
}

func (q *Queue) DeadLetter(ctx context.Context, job domain.UploadJob, reason string) error {
	job.State = domain.JobStateDeadLettered
	job.LastError = reason
	q.setState(job)
	q.mu.Lock()
	q.dead = append(q.dead, job)
	q.mu.Unlock()
	q.logger.Error("job dead-lettered", "jobId", job.ID, "document", job.OriginalName, "attempts", job.Attempts, "reason", reason)
	return nil
}

func (q *Queue) SaveState(ctx context.Context, job domain.UploadJob) error {
	q.setState(job)
	return nil
}

func (q *Queue) Job(ctx context.Context, id string) (domain.UploadJob, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.states[id]
	return job, ok
}

// DeadLetters lists parked jobs, newest last.
func (q *Queue) DeadLetters() []domain.UploadJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]domain.UploadJob, len(q.dead))
	copy(out, q.dead)
	return out
}

func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for _, t := range q.timers {
		t.Stop()
	}
	return nil
}

func (q *Queue) setState(job domain.UploadJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.states[job.ID] = job
}
