package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Embedder produces the query/document vectors stored alongside documents.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Service is the semantic knowledge base: documents go in with an embedding,
// queries come back ranked by similarity.
type Service interface {
	AddDocument(ctx context.Context, collection, document string, metadata map[string]interface{}) error
	Search(ctx context.Context, collection, query string, limit int) ([]types.KnowledgeDocument, error)
	Reset(ctx context.Context) error
	Stats(ctx context.Context) (map[string]int, error)
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	repo     Repository
	embedder Embedder
	logger   *slog.Logger
}

func NewService(repo Repository, embedder Embedder, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		embedder: embedder,
		logger:   logger,
	}
}

func (s *ServiceImpl) AddDocument(ctx context.Context, collection, document string, metadata map[string]interface{}) error {
	ctx, span := otel.Tracer("KnowledgeService").Start(ctx, "AddDocument")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection))

	embedding, err := s.embedder.GenerateEmbedding(ctx, document)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding failed")
		return fmt.Errorf("failed to embed document: %w", err)
	}

	if err := s.repo.AddDocument(ctx, collection, document, metadata, embedding); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetStatus(codes.Ok, "Document added")
	return nil
}

func (s *ServiceImpl) Search(ctx context.Context, collection, query string, limit int) ([]types.KnowledgeDocument, error) {
	ctx, span := otel.Tracer("KnowledgeService").Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.Int("limit", limit))

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query embedding failed")
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	docs, err := s.repo.Search(ctx, collection, embedding, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Search complete")
	return docs, nil
}

func (s *ServiceImpl) Reset(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Resetting knowledge base")
	return s.repo.Reset(ctx)
}

func (s *ServiceImpl) Stats(ctx context.Context) (map[string]int, error) {
	return s.repo.Stats(ctx)
}
