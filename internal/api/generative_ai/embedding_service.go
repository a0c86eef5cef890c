package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// EmbeddingService generates text embeddings for knowledge-store documents
// and search queries.
type EmbeddingService struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewEmbeddingService(ctx context.Context, model string, logger *slog.Logger) (*EmbeddingService, error) {
	ctx, span := otel.Tracer("EmbeddingService").Start(ctx, "NewEmbeddingService")
	defer span.End()

	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		err := fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	span.SetStatus(codes.Ok, "Embedding service created")
	return &EmbeddingService{client: client, model: model, logger: logger}, nil
}

// GenerateEmbedding returns the embedding vector for one text.
func (s *EmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("EmbeddingService").Start(ctx, "GenerateEmbedding")
	defer span.End()

	resp, err := s.client.Models.EmbedContent(ctx, s.model, genai.Text(text), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate embedding")
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		err := fmt.Errorf("embedding response contained no values")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty embedding")
		return nil, err
	}

	values := resp.Embeddings[0].Values
	span.SetAttributes(attribute.Int("embedding.dimension", len(values)))
	span.SetStatus(codes.Ok, "Embedding generated")
	return values, nil
}
