package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/queue/memqueue"
)

type stubIngestor struct {
	calls    atomic.Int32
	failures int32 // fail this many leading attempts
	err      error
}

func (s *stubIngestor) Run(ctx context.Context, job domain.UploadJob) error {
	n := s.calls.Add(1)
	if n <= s.failures {
		return s.err
	}
	return nil
}

func startPool(t *testing.T, ing Ingestor) (*memqueue.Queue, *Pool) {
	t.Helper()
	q := memqueue.New(16)
	p := NewPool(q, ing, 4)
	p.maxAttempts = 3
	p.backoff = func(int) time.Duration { return 5 * time.Millisecond }
	p.Start(context.Background())
	t.Cleanup(func() {
		p.Stop()
		q.Close()
	})
	return q, p
}

func waitForState(t *testing.T, q *memqueue.Queue, id string, want domain.JobState) domain.UploadJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := q.Job(context.Background(), id); ok && job.State == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := q.Job(context.Background(), id)
	t.Fatalf("job %s never reached %s, last state %s (%s)", id, want, job.State, job.LastError)
	return domain.UploadJob{}
}

func TestPool_IndexesJob(t *testing.T) {
	ing := &stubIngestor{}
	q, _ := startPool(t, ing)

	if err := q.Enqueue(context.Background(), domain.UploadJob{ID: "ok-1", OriginalName: "a.pdf"}); err != nil {
		t.Fatal(err)
	}
	job := waitForState(t, q, "ok-1", domain.JobStateIndexed)
	if job.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", job.Attempts)
	}
}

func TestPool_PermanentFailureIsNotRetried(t *testing.T) {
	ing := &stubIngestor{failures: 100, err: fmt.Errorf("%w: corrupt file", domain.ErrLoad)}
	q, _ := startPool(t, ing)

	if err := q.Enqueue(context.Background(), domain.UploadJob{ID: "bad-1", OriginalName: "corrupt.pdf"}); err != nil {
		t.Fatal(err)
	}
	job := waitForState(t, q, "bad-1", domain.JobStateDeadLettered)
	if job.Attempts != 1 {
		t.Errorf("permanent failure should dead-letter on first attempt, got %d attempts", job.Attempts)
	}
	if len(q.DeadLetters()) != 1 {
		t.Errorf("dead-letter list should hold the job")
	}
}

func TestPool_TransientFailureRetriesThenSucceeds(t *testing.T) {
	ing := &stubIngestor{failures: 1, err: fmt.Errorf("%w: timeout", domain.ErrEmbedding)}
	q, _ := startPool(t, ing)

	if err := q.Enqueue(context.Background(), domain.UploadJob{ID: "flaky-1", OriginalName: "b.pdf"}); err != nil {
		t.Fatal(err)
	}
	job := waitForState(t, q, "flaky-1", domain.JobStateIndexed)
	if job.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", job.Attempts)
	}
}

func TestPool_ExhaustedRetriesDeadLetter(t *testing.T) {
	ing := &stubIngestor{failures: 100, err: fmt.Errorf("%w: down", domain.ErrIndex)}
	q, _ := startPool(t, ing)

	if err := q.Enqueue(context.Background(), domain.UploadJob{ID: "doomed-1", OriginalName: "c.pdf"}); err != nil {
		t.Fatal(err)
	}
	job := waitForState(t, q, "doomed-1", domain.JobStateDeadLettered)
	if job.Attempts != 3 {
		t.Errorf("expected 3 attempts before dead-lettering, got %d", job.Attempts)
	}
}
