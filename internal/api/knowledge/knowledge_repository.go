package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Collections accepted by the travel_knowledge table.
const (
	CollectionDestinations     = "destinations"
	CollectionActivities       = "activities"
	CollectionLocalExperiences = "local_experiences"
	CollectionTravelTips       = "travel_tips"
)

var validCollections = map[string]bool{
	CollectionDestinations:     true,
	CollectionActivities:       true,
	CollectionLocalExperiences: true,
	CollectionTravelTips:       true,
}

type Repository interface {
	AddDocument(ctx context.Context, collection, document string, metadata map[string]interface{}, embedding []float32) error
	Search(ctx context.Context, collection string, embedding []float32, limit int) ([]types.KnowledgeDocument, error)
	Reset(ctx context.Context) error
	Stats(ctx context.Context) (map[string]int, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresRepository(pgxpool *pgxpool.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *RepositoryImpl) AddDocument(ctx context.Context, collection, document string,
	metadata map[string]interface{}, embedding []float32) error {

	ctx, span := otel.Tracer("KnowledgeRepo").Start(ctx, "AddDocument")
	defer span.End()

	if !validCollections[collection] {
		return fmt.Errorf("%w: unknown collection %q", types.ErrInvalidInput, collection)
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal document metadata: %w", err)
	}

	_, err = r.pgpool.Exec(ctx, `
        INSERT INTO travel_knowledge (collection, document, metadata, embedding)
        VALUES ($1, $2, $3, $4::vector)`,
		collection, document, meta, vectorLiteral(embedding))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return fmt.Errorf("failed to insert knowledge document: %w", err)
	}
	span.SetStatus(codes.Ok, "Document added")
	return nil
}

// Search orders by cosine distance against the query embedding and reports
// similarity as 1 - distance.
func (r *RepositoryImpl) Search(ctx context.Context, collection string,
	embedding []float32, limit int) ([]types.KnowledgeDocument, error) {

	ctx, span := otel.Tracer("KnowledgeRepo").Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.Int("limit", limit))

	if !validCollections[collection] {
		return nil, fmt.Errorf("%w: unknown collection %q", types.ErrInvalidInput, collection)
	}
	if limit < 1 {
		limit = 1
	}

	rows, err := r.pgpool.Query(ctx, `
        SELECT id, collection, document, metadata,
               1 - (embedding <=> $1::vector) AS similarity
        FROM travel_knowledge
        WHERE collection = $2 AND embedding IS NOT NULL
        ORDER BY embedding <=> $1::vector
        LIMIT $3`,
		vectorLiteral(embedding), collection, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search query failed")
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	defer rows.Close()

	var docs []types.KnowledgeDocument
	for rows.Next() {
		var doc types.KnowledgeDocument
		var meta []byte
		if err := rows.Scan(&doc.ID, &doc.Collection, &doc.Document, &meta, &doc.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge document: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
				r.logger.WarnContext(ctx, "Skipping malformed document metadata",
					slog.String("id", doc.ID), slog.Any("error", err))
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledge search rows error: %w", err)
	}

	span.SetStatus(codes.Ok, "Search complete")
	return docs, nil
}

func (r *RepositoryImpl) Reset(ctx context.Context) error {
	_, err := r.pgpool.Exec(ctx, "TRUNCATE travel_knowledge")
	if err != nil {
		return fmt.Errorf("failed to reset knowledge base: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := r.pgpool.Query(ctx,
		"SELECT collection, COUNT(*) FROM travel_knowledge GROUP BY collection")
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge stats: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{}
	for collection := range validCollections {
		stats[collection] = 0
	}
	for rows.Next() {
		var collection string
		var count int
		if err := rows.Scan(&collection, &count); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge stats: %w", err)
		}
		stats[collection] = count
	}
	return stats, rows.Err()
}

// vectorLiteral renders an embedding as the pgvector input format.
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
