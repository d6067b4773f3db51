package config

import (
	"os"
	"time"
)

const (
	IsProd     = false
	TraceIDKey = "traceId"

	RateLimitPerSecond      = 2
	BurstRateLimitPerSecond = 5

	// Ingestion and query must use the same embedding model; records carry
	// the model identifier and the index filters on it at query time.
	EmbeddingOutputDimensionality int32 = 1536
	CollectionName                      = "docchat-chunks"

	// Chunking defaults. A single unit longer than ChunkSize is never split.
	ChunkSeparator   = "\n"
	ChunkSize        = 1000
	ChunkOverlap     = 200
	EmbedBatchSize   = 100
	RetrievalTopK    = 3
	ContextDelimiter = "\n---\n"

	// Ingestion worker pool: up to this many jobs in flight at once.
	MaxInFlightJobs = 100

	// Per-job retry policy. Load failures are permanent and never retried;
	// embedding/index failures requeue with exponential backoff until the
	// job is dead-lettered.
	MaxJobAttempts  = 5
	RetryBackoffMin = 2 * time.Second
	RetryBackoffMax = 2 * time.Minute
	JobTimeout      = 5 * time.Minute
	CallTimeout     = 30 * time.Second

	// serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":8000"
	MaxUploadSize    = 32 << 20 // 32mb

	// vectorDB
	QdrantHost             = "127.0.0.1"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1
	QdrantKeepAliveTimeout = 30 * time.Second

	GeminiModelName      = "gemini-2.0-flash"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIModelName      = "gpt-4o-mini"
	OpenAIEmbeddingModel = "text-embedding-3-small"

	SystemInstruction = "You are a helpful AI assistant. Answer clearly, concisely, and based on the context provided."

	// redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	JobStateTTL = 24 * time.Hour

	UploadDir = "uploads"
)

// Provider selects the embedding + generation backend. Both sides of the
// pipeline always share one provider so vectors stay comparable.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func LLMProvider() string {
	return Getenv("LLM_PROVIDER", ProviderGoogle)
}

func GoogleAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}
