package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nversa/docchat/internal/chunker"
	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/docstore"
	"github.com/nversa/docchat/internal/embedding"
	"github.com/nversa/docchat/internal/embedding/googleembed"
	"github.com/nversa/docchat/internal/embedding/openaiembed"
	"github.com/nversa/docchat/internal/handlers"
	"github.com/nversa/docchat/internal/ingest"
	"github.com/nversa/docchat/internal/llm"
	"github.com/nversa/docchat/internal/llm/gemini"
	"github.com/nversa/docchat/internal/llm/openaichat"
	"github.com/nversa/docchat/internal/loader"
	"github.com/nversa/docchat/internal/queue"
	"github.com/nversa/docchat/internal/queue/memqueue"
	"github.com/nversa/docchat/internal/queue/redisqueue"
	"github.com/nversa/docchat/internal/rag"
	"github.com/nversa/docchat/internal/server"
	"github.com/nversa/docchat/internal/vectorindex"
	"github.com/nversa/docchat/internal/vectorindex/memoryindex"
	"github.com/nversa/docchat/internal/vectorindex/qdrantindex"
	"github.com/nversa/docchat/internal/worker"
	"github.com/nversa/docchat/pkg/logging"
)

func main() {
	logging.Init(config.IsProd)
	logger := logging.NewLogger("main")

	var listenAddr string
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := newQueue(ctx, logger)
	defer q.Close()

	index := newIndex(ctx, logger)
	defer index.Close()

	embedder, provider, err := newProvider(ctx)
	if err != nil {
		logger.Error("provider initialization failed", "error", err, "provider", config.LLMProvider())
		os.Exit(1)
	}

	store, err := docstore.New(config.UploadDir)
	if err != nil {
		logger.Error("upload store initialization failed", "error", err)
		os.Exit(1)
	}

	pipeline := ingest.New(loader.New(), embedder, index, chunker.DefaultOptions())
	pool := worker.NewPool(q, pipeline, config.MaxInFlightJobs)
	pool.Start(ctx)

	ragService := rag.NewService(embedder, index, provider)
	srv := server.New(listenAddr, handlers.New(q, ragService, store, index))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.ListenAndServe() }()

	select {
	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverDone:
		if err != nil {
			logger.Error("server crashed", "error", err)
		}
	}

	// Drain order: stop accepting requests, let in-flight jobs finish,
	// then drop external connections.
	if err := srv.Shutdown(); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
	pool.Stop()
	cancel()
	logger.Info("stopped")
}

// newQueue prefers the durable Redis queue and falls back to the
// process-local one so the service still comes up without Redis.
func newQueue(ctx context.Context, logger *logging.Logger) queue.Queue {
	q, err := redisqueue.New(ctx, config.RedisAddr)
	if err != nil {
		logger.Error("redis unreachable, jobs will not survive a restart", "error", err, "addr", config.RedisAddr)
		return memqueue.New(config.MaxInFlightJobs)
	}
	return q
}

func newIndex(ctx context.Context, logger *logging.Logger) vectorindex.Index {
	idx, err := qdrantindex.New(qdrantindex.Config{
		Host:       config.QdrantHost,
		Port:       config.QdrantGrpcPort,
		UseTLS:     config.QdrantUseTLS,
		Collection: config.CollectionName,
	})
	if err == nil {
		err = idx.Ensure(ctx)
	}
	if err != nil {
		logger.Error("qdrant unreachable, falling back to in-memory index", "error", err)
		return memoryindex.New(int(config.EmbeddingOutputDimensionality))
	}
	return idx
}

func newProvider(ctx context.Context) (embedding.Embedder, llm.Provider, error) {
	switch config.LLMProvider() {
	case config.ProviderOpenAI:
		key := config.OpenAIAPIKey()
		return openaiembed.New(config.OpenAIEmbeddingModel, key),
			openaichat.New(config.OpenAIModelName, key), nil
	default:
		key := config.GoogleAPIKey()
		embedder, err := googleembed.New(ctx, config.GoogleEmbeddingModel, key)
		if err != nil {
			return nil, nil, err
		}
		provider, err := gemini.New(ctx, config.GeminiModelName, key)
		if err != nil {
			return nil, nil, err
		}
		return embedder, provider, nil
	}
}
