// Package queue defines the delivery channel between the upload path and
// the ingestion workers: at-least-once, durable in the Redis implementation,
// with explicit retry scheduling and a dead-letter terminal state.
package queue

import (
	"context"
	"time"

	"github.com/nversa/docchat/internal/domain"
)

type Queue interface {
	// Enqueue makes the job available for delivery.
	Enqueue(ctx context.Context, job domain.UploadJob) error

	// Dequeue blocks until a job is delivered or ctx is done. A delivered
	// job stays tracked as in-flight until Ack, Retry or DeadLetter; a
	// consumer crash puts it back in line, so delivery is at least once.
	Dequeue(ctx context.Context) (domain.UploadJob, error)

	// Ack destroys the job after successful indexing.
	Ack(ctx context.Context, job domain.UploadJob) error

	// Retry requeues the job for redelivery after delay.
	Retry(ctx context.Context, job domain.UploadJob, delay time.Duration) error

	// DeadLetter parks the job in a terminal state for operator attention.
	// Dead-lettered jobs are recorded, never silently dropped.
	DeadLetter(ctx context.Context, job domain.UploadJob, reason string) error

	// SaveState persists a job snapshot without affecting delivery, so a
	// worker can record intermediate transitions such as Processing.
	SaveState(ctx context.Context, job domain.UploadJob) error

	// Job reports the last persisted snapshot of a job, for status lookups.
	Job(ctx context.Context, id string) (domain.UploadJob, bool)

	Close() error
}
