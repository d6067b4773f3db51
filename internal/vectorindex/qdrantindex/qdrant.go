package qdrantindex

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/vectorindex"
	"github.com/nversa/docchat/pkg/logging"
	"github.com/qdrant/go-client/qdrant"
)

var dimension = uint64(config.EmbeddingOutputDimensionality)

// recordNamespace seeds deterministic point IDs: the same source document
// and ordinal always map to the same point, so replaying an ingestion job
// overwrites instead of duplicating.
var recordNamespace = uuid.MustParse("7f1c3b52-9a44-4d2e-8e0b-d6f0a5c0e9b1")

type Store struct {
	client     *qdrant.Client
	collection string
	logger     *logging.Logger
}

type Config struct {
	Host       string
	Port       int
	UseTLS     bool
	Collection string
}

func New(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		UseTLS:   cfg.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &Store{
		client:     client,
		collection: cfg.Collection,
		logger:     logging.NewLogger("qdrant"),
	}, nil
}

var _ vectorindex.Index = (*Store)(nil)

func (s *Store) Ensure(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("%w: collection check: %v", domain.ErrIndex, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: create collection: %v", domain.ErrIndex, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		if len(rec.Vector) != int(dimension) {
			return fmt.Errorf("%w: record %d has dimension %d, want %d", domain.ErrIndex, i, len(rec.Vector), dimension)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(rec.SourceDocument, rec.Ordinal)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":            rec.Text,
				"source_document": rec.SourceDocument,
				"ordinal":         rec.Ordinal,
				"model":           rec.Model,
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %d points: %v", domain.ErrIndex, len(points), err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, k int, model string) ([]domain.ScoredText, error) {
	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("model", model),
			},
		},
	})
	if err != nil {
		s.logger.Error("query failed", "error", err)
		return nil, fmt.Errorf("%w: query: %v", domain.ErrIndex, err)
	}

	hits := make([]domain.ScoredText, 0, len(result))
	for _, hit := range result {
		hits = append(hits, domain.ScoredText{
			Text:  hit.Payload["text"].GetStringValue(),
			Score: hit.Score,
		})
	}
	return hits, nil
}

func (s *Store) DeleteBySource(ctx context.Context, sourceDocument string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("source_document", sourceDocument),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: delete by source %q: %v", domain.ErrIndex, sourceDocument, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func pointID(source string, ordinal int) string {
	return uuid.NewSHA1(recordNamespace, []byte(source+"#"+strconv.Itoa(ordinal))).String()
}
