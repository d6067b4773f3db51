package redisqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nversa/docchat/internal/domain"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	q, err := New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("queue init: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q, mr
}

func testJob(id string) domain.UploadJob {
	return domain.UploadJob{
		ID:           id,
		SourcePath:   "uploads/1-report.pdf",
		OriginalName: "report.pdf",
		ReceivedAt:   time.Now().UTC(),
	}
}

func TestEnqueueDequeueAck(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, testJob("job-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job.ID != "job-1" {
		t.Errorf("got job %s", job.ID)
	}
	if job.State != domain.JobStateReceived {
		t.Errorf("delivered job in state %s", job.State)
	}

	job.State = domain.JobStateIndexed
	if err := q.Ack(ctx, job); err != nil {
		t.Fatalf("ack: %v", err)
	}

	saved, ok := q.Job(ctx, "job-1")
	if !ok {
		t.Fatal("job state missing after ack")
	}
	if saved.State != domain.JobStateIndexed {
		t.Errorf("state after ack: %s", saved.State)
	}
	if mr.Exists(inflightKey) {
		t.Error("in-flight list should be empty after ack")
	}
}

func TestRetryRedelivers(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, testJob("job-2")); err != nil {
		t.Fatal(err)
	}
	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}

	job.Attempts = 1
	job.State = domain.JobStateRetrying
	if err := q.Retry(ctx, job, 10*time.Millisecond); err != nil {
		t.Fatalf("retry: %v", err)
	}

	// The pump moves due retries back to pending on its next tick.
	dtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	redelivered, err := q.Dequeue(dtx)
	if err != nil {
		t.Fatalf("redelivery never arrived: %v", err)
	}
	if redelivered.ID != "job-2" || redelivered.Attempts != 1 {
		t.Errorf("redelivered job lost its attempt count: %+v", redelivered)
	}
}

func TestDeadLetterIsTerminal(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, testJob("job-3")); err != nil {
		t.Fatal(err)
	}
	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := q.DeadLetter(ctx, job, "retries exhausted"); err != nil {
		t.Fatalf("dead-letter: %v", err)
	}

	saved, ok := q.Job(ctx, "job-3")
	if !ok || saved.State != domain.JobStateDeadLettered {
		t.Errorf("expected dead-lettered state, got %+v", saved)
	}
	if !mr.Exists(deadKey) {
		t.Error("dead-letter list should record the job")
	}
	if mr.Exists(inflightKey) {
		t.Error("in-flight list should be empty after dead-letter")
	}
}

func TestCrashDuringRetryNeverLosesJob(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	q1, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	if err := q1.Enqueue(ctx, testJob("job-5")); err != nil {
		t.Fatal(err)
	}
	job, err := q1.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// The retry entry is written before the in-flight payload is released.
	// Crash exactly between the two: the job must exist somewhere in Redis.
	job.State = domain.JobStateRetrying
	if err := q1.scheduleRetry(ctx, job, time.Hour); err != nil {
		t.Fatalf("schedule retry: %v", err)
	}
	q1.Close()

	if !mr.Exists(retryKey) {
		t.Error("retry entry missing at the crash point")
	}
	if !mr.Exists(inflightKey) {
		t.Error("in-flight payload missing at the crash point")
	}

	q2, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer q2.Close()

	dtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	redelivered, err := q2.Dequeue(dtx)
	if err != nil {
		t.Fatalf("job lost across the crash: %v", err)
	}
	if redelivered.ID != "job-5" {
		t.Errorf("got job %s", redelivered.ID)
	}
}

func TestCrashDuringDeadLetterKeepsRecord(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	q1, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	if err := q1.Enqueue(ctx, testJob("job-6")); err != nil {
		t.Fatal(err)
	}
	job, err := q1.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// The dead-list entry is written before the in-flight release; a crash
	// in between leaves a duplicate, never a silently dropped job.
	job.State = domain.JobStateDeadLettered
	job.LastError = "retries exhausted"
	if err := q1.parkDead(ctx, job); err != nil {
		t.Fatalf("park dead: %v", err)
	}
	q1.Close()

	if !mr.Exists(deadKey) {
		t.Error("dead-letter record missing at the crash point")
	}
	if !mr.Exists(inflightKey) {
		t.Error("in-flight payload missing at the crash point")
	}
}

func TestOrphanedInflightJobsAreRequeued(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	q1, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	if err := q1.Enqueue(ctx, testJob("job-4")); err != nil {
		t.Fatal(err)
	}
	if _, err := q1.Dequeue(ctx); err != nil {
		t.Fatal(err)
	}
	// Simulate a crash: the job is never acknowledged.
	q1.Close()

	q2, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer q2.Close()

	dtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	job, err := q2.Dequeue(dtx)
	if err != nil {
		t.Fatalf("orphaned job was not redelivered: %v", err)
	}
	if job.ID != "job-4" {
		t.Errorf("got job %s", job.ID)
	}
}
