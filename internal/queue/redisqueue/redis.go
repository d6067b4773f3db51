package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/queue"
	"github.com/nversa/docchat/pkg/logging"
	"github.com/redis/go-redis/v9"
)

const (
	pendingKey  = "docchat:jobs:pending"
	inflightKey = "docchat:jobs:inflight"
	retryKey    = "docchat:jobs:retry"
	deadKey     = "docchat:jobs:dead"
	statePrefix = "docchat:job:"
)

// Queue is a Redis-backed job queue. Pending jobs live in a list, delivered
// jobs are parked on an in-flight list until acknowledged, scheduled retries
// wait in a sorted set keyed by due time, and exhausted jobs land on a
// dead-letter list. Jobs on the in-flight list at startup belonged to a
// crashed consumer and are requeued, which is where the at-least-once
// guarantee comes from.
type Queue struct {
	client *redis.Client
	logger *logging.Logger

	mu        sync.Mutex
	delivered map[string]string // job id -> raw payload as delivered

	pumpInterval time.Duration
	stopPump     context.CancelFunc
	pumpDone     chan struct{}
}

func New(ctx context.Context, addr string) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis offline: %w", err)
	}

	q := &Queue{
		client:       client,
		logger:       logging.NewLogger("redis_queue"),
		delivered:    make(map[string]string),
		pumpInterval: time.Second,
		pumpDone:     make(chan struct{}),
	}
	if err := q.requeueInflight(ctx); err != nil {
		return nil, err
	}

	pumpCtx, stop := context.WithCancel(context.Background())
	q.stopPump = stop
	go q.pumpRetries(pumpCtx)
	return q, nil
}

var _ queue.Queue = (*Queue)(nil)

func (q *Queue) Enqueue(ctx context.Context, job domain.UploadJob) error {
	job.State = domain.JobStateReceived
	raw, err := marshal(job)
	if err != nil {
		return err
	}
	if err := q.saveState(ctx, job); err != nil {
		return err
	}
	if err := q.client.LPush(ctx, pendingKey, raw).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return nil
}

func (q *Queue) Dequeue(ctx context.Context) (domain.UploadJob, error) {
	for {
		raw, err := q.client.BLMove(ctx, pendingKey, inflightKey, "RIGHT", "LEFT", time.Second).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return domain.UploadJob{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return domain.UploadJob{}, ctx.Err()
			}
			return domain.UploadJob{}, fmt.Errorf("dequeue: %w", err)
		}

		var job domain.UploadJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			// A payload we cannot parse can never be processed.
			q.logger.Error("dropping unparseable job payload", "error", err)
			q.client.LRem(ctx, inflightKey, 1, raw)
			q.client.LPush(ctx, deadKey, raw)
			continue
		}

		q.mu.Lock()
		q.delivered[job.ID] = raw
		q.mu.Unlock()
		return job, nil
	}
}

func (q *Queue) Ack(ctx context.Context, job domain.UploadJob) error {
	if err := q.release(ctx, job.ID); err != nil {
		return err
	}
	return q.saveState(ctx, job)
}

// Retry writes the retry entry before releasing the in-flight payload. A
// crash between the two leaves the job in both structures, so the worst
// case is a duplicate delivery, never a lost job; replay is idempotent.
func (q *Queue) Retry(ctx context.Context, job domain.UploadJob, delay time.Duration) error {
	if err := q.scheduleRetry(ctx, job, delay); err != nil {
		return err
	}
	if err := q.release(ctx, job.ID); err != nil {
		return err
	}
	return q.saveState(ctx, job)
}

func (q *Queue) scheduleRetry(ctx context.Context, job domain.UploadJob, delay time.Duration) error {
	raw, err := marshal(job)
	if err != nil {
		return err
	}
	due := float64(time.Now().Add(delay).UnixMilli())
	if err := q.client.ZAdd(ctx, retryKey, redis.Z{Score: due, Member: raw}).Err(); err != nil {
		return fmt.Errorf("schedule retry for job %s: %w", job.ID, err)
	}
	return nil
}

// DeadLetter parks the job on the dead list first and releases the
// in-flight payload last, same ordering rationale as Retry.
func (q *Queue) DeadLetter(ctx context.Context, job domain.UploadJob, reason string) error {
	job.State = domain.JobStateDeadLettered
	job.LastError = reason
	if err := q.parkDead(ctx, job); err != nil {
		return err
	}
	if err := q.release(ctx, job.ID); err != nil {
		return err
	}
	q.logger.Error("job dead-lettered", "jobId", job.ID, "document", job.OriginalName, "attempts", job.Attempts, "reason", reason)
	return q.saveState(ctx, job)
}

func (q *Queue) parkDead(ctx context.Context, job domain.UploadJob) error {
	raw, err := marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, deadKey, raw).Err(); err != nil {
		return fmt.Errorf("dead-letter job %s: %w", job.ID, err)
	}
	return nil
}

func (q *Queue) Job(ctx context.Context, id string) (domain.UploadJob, bool) {
	val, err := q.client.Get(ctx, statePrefix+id).Result()
	if err != nil {
		return domain.UploadJob{}, false
	}
	var job domain.UploadJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return domain.UploadJob{}, false
	}
	return job, true
}

func (q *Queue) Close() error {
	if q.stopPump != nil {
		q.stopPump()
		<-q.pumpDone
	}
	return q.client.Close()
}

// SaveState persists a job snapshot without touching delivery, so workers
// can record the Processing transition.
func (q *Queue) SaveState(ctx context.Context, job domain.UploadJob) error {
	return q.saveState(ctx, job)
}

// release drops the delivered payload from the in-flight list.
func (q *Queue) release(ctx context.Context, jobID string) error {
	q.mu.Lock()
	raw, ok := q.delivered[jobID]
	delete(q.delivered, jobID)
	q.mu.Unlock()
	if !ok {
		return nil
	}
	if err := q.client.LRem(ctx, inflightKey, 1, raw).Err(); err != nil {
		return fmt.Errorf("release job %s: %w", jobID, err)
	}
	return nil
}

func (q *Queue) saveState(ctx context.Context, job domain.UploadJob) error {
	raw, err := marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.Set(ctx, statePrefix+job.ID, raw, config.JobStateTTL).Err(); err != nil {
		return fmt.Errorf("save state for job %s: %w", job.ID, err)
	}
	return nil
}

// requeueInflight pushes jobs a crashed consumer left behind back onto the
// pending list.
func (q *Queue) requeueInflight(ctx context.Context) error {
	for {
		raw, err := q.client.RPopLPush(ctx, inflightKey, pendingKey).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("requeue inflight: %w", err)
		}
		q.logger.Warn("requeued orphaned in-flight job", "payload", raw)
	}
}

// pumpRetries moves due retries back onto the pending list.
func (q *Queue) pumpRetries(ctx context.Context) {
	defer close(q.pumpDone)
	ticker := time.NewTicker(q.pumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := strconv.FormatInt(time.Now().UnixMilli(), 10)
			due, err := q.client.ZRangeByScore(ctx, retryKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
			if err != nil {
				q.logger.Error("retry pump failed", "error", err)
				continue
			}
			for _, raw := range due {
				if removed, err := q.client.ZRem(ctx, retryKey, raw).Result(); err != nil || removed == 0 {
					continue
				}
				if err := q.client.LPush(ctx, pendingKey, raw).Err(); err != nil {
					q.logger.Error("failed to requeue due retry", "error", err)
				}
			}
		}
	}
}

func marshal(job domain.UploadJob) (string, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	return string(raw), nil
}
