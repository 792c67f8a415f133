package embeddings

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Generator produces embedding vectors for semantic retrieval queries
type Generator struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewGenerator creates a new embeddings generator. An empty model defaults
// to text-embedding-3-small, which matches the vectors stored in the
// posting index.
func NewGenerator(apiKey, model string) *Generator {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	embeddingModel := openai.EmbeddingModel(model)
	if embeddingModel == "" {
		embeddingModel = openai.EmbeddingModelTextEmbedding3Small
	}

	return &Generator{
		client: &client,
		model:  embeddingModel,
	}
}

// GenerateEmbedding creates an embedding vector for text
func (g *Generator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	// Send as array with single element (works consistently)
	resp, err := g.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: g.model,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	// Convert []float64 to []float32
	embedding64 := resp.Data[0].Embedding
	embedding32 := make([]float32, len(embedding64))
	for i, v := range embedding64 {
		embedding32[i] = float32(v)
	}

	return embedding32, nil
}
