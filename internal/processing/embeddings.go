package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEmbeddingDim matches nomic-embed-text.
const DefaultEmbeddingDim = 768

var ErrEmptyInput = errors.New("processing: empty embedding input")

// Embedder produces embeddings through an Ollama compatible
// /api/embeddings endpoint.
type Embedder struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

func NewEmbedder(baseURL, model string, dim int, timeout time.Duration) *Embedder {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &Embedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		dim:     dim,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *Embedder) Dim() int { return e.dim }

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedChunks embeds each chunk in order.
func (e *Embedder) EmbedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		emb, err := e.embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyInput
	}
	return e.embed(ctx, query)
}

func (e *Embedder) embed(ctx context.Context, text string) ([]float32, error) {
	data, err := json.Marshal(embeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed decode response: %w", err)
	}
	if len(out.Embedding) != e.dim {
		return nil, fmt.Errorf("expected embedding dim %d, got %d", e.dim, len(out.Embedding))
	}
	return out.Embedding, nil
}
