package domain

import (
	"time"

	"github.com/nversa/docchat/internal/config"
)

type JobState string

// Job lifecycle: Received -> Processing -> {Indexed | Retrying -> Processing
// | DeadLettered}. The queue delivers at least once, so a job may re-enter
// Processing after a crash without ever passing through Retrying.
const (
	JobStateReceived     JobState = "RECEIVED"
	JobStateProcessing   JobState = "PROCESSING"
	JobStateIndexed      JobState = "INDEXED"
	JobStateRetrying     JobState = "RETRYING"
	JobStateDeadLettered JobState = "DEAD_LETTERED"
)

// UploadJob is one enqueued document waiting to be indexed. Created when an
// upload lands on disk, acknowledged only after its chunks are upserted.
type UploadJob struct {
	ID           string    `json:"id"`
	TraceID      string    `json:"trace_id"`
	SourcePath   string    `json:"source_path"`
	OriginalName string    `json:"original_name"`
	ReceivedAt   time.Time `json:"received_at"`
	State        JobState  `json:"state"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"last_error,omitempty"`
	EndTime      time.Time `json:"end_time,omitempty"`
}

// BackoffDelay returns the requeue delay before the given attempt number.
// Exponential from the configured floor, capped at the configured ceiling.
func BackoffDelay(attempts int) time.Duration {
	d := config.RetryBackoffMin
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= config.RetryBackoffMax {
			return config.RetryBackoffMax
		}
	}
	return d
}
