package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

type IDSearcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]string, error)
}

const DefaultTopK = 4

// MultiVectorRetriever searches chunk embeddings and returns the parent
// documents from the docstore, closest first, each at most once.
type MultiVectorRetriever struct {
	embedder QueryEmbedder
	index    IDSearcher
	docs     DocStore
	topK     int
	logger   *zap.Logger
}

func NewMultiVectorRetriever(embedder QueryEmbedder, index IDSearcher, docs DocStore, topK int, logger *zap.Logger) *MultiVectorRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiVectorRetriever{
		embedder: embedder,
		index:    index,
		docs:     docs,
		topK:     topK,
		logger:   logger.With(zap.String("component", "retriever")),
	}
}

func (r *MultiVectorRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	emb, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	ids, err := r.index.Search(ctx, emb, r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	texts, err := r.docs.MGet(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("docstore lookup: %w", err)
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		text, ok := texts[id]
		if !ok {
			r.logger.Warn("indexed document missing from docstore", zap.String("doc_id", id))
			continue
		}
		out = append(out, text)
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
