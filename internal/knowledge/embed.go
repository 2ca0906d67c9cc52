package knowledge

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const DefaultEmbeddingModel = "gemini-embedding-001"

// GeminiEmbedder embeds text with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	task   string
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiEmbedder{client: client, model: model, task: "SEMANTIC_SIMILARITY"}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	res, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: e.task,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("gemini returned no embeddings")
	}
	return res.Embeddings[0].Values, nil
}
