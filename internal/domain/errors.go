package domain

import "errors"

// Error taxonomy for the two pipelines. Sentinels are wrapped with %w so a
// failure anywhere in a pipeline can be classified without string matching.
var (
	// ErrLoad marks a document that cannot be read or parsed. Permanent:
	// retrying cannot fix a corrupt file.
	ErrLoad = errors.New("document load failed")

	// ErrEmbedding marks an embedding service failure. Transient.
	ErrEmbedding = errors.New("embedding service failed")

	// ErrIndex marks a vector index failure. Transient.
	ErrIndex = errors.New("vector index failed")

	// ErrGeneration marks an answer generation failure. Transient, but the
	// query path is synchronous so it surfaces to the caller instead of
	// being retried.
	ErrGeneration = errors.New("answer generation failed")

	// ErrValidation marks a caller mistake. Never retried.
	ErrValidation = errors.New("invalid request")
)

// Retryable reports whether re-running the failed job can succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbedding) || errors.Is(err, ErrIndex)
}

// Permanent reports whether the failure is terminal for the job.
func Permanent(err error) bool {
	return errors.Is(err, ErrLoad) || errors.Is(err, ErrValidation)
}
