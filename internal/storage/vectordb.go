package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

const (
	insertEmbedding  = "INSERT INTO embeddings (doc_id, path, source, embedding) VALUES ($1, $2, $3, $4)"
	searchEmbeddings = "SELECT doc_id FROM embeddings ORDER BY embedding <-> $1 LIMIT $2"
	deleteByPath     = "DELETE FROM embeddings WHERE path = $1 RETURNING doc_id"
)

// Entry is one embedded chunk pointing at a docstore id. Several entries
// may share a DocID. Path identifies the source file relative to the
// directory it was indexed from.
type Entry struct {
	DocID     string
	Path      string
	Source    string
	Embedding []float32
}

type VectorIndex struct {
	db DBTX
}

func NewVectorIndex(db DBTX) *VectorIndex {
	return &VectorIndex{db: db}
}

func (v *VectorIndex) Insert(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(insertEmbedding, e.DocID, e.Path, e.Source, pgvector.NewVector(e.Embedding))
	}
	br := v.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert embedding %d: %w", i, err)
		}
	}
	return nil
}

// Search returns the doc ids of the topK nearest vectors, closest first.
// Ids repeat when several chunks of one document match.
func (v *VectorIndex) Search(ctx context.Context, embedding []float32, topK int) ([]string, error) {
	rows, err := v.db.Query(ctx, searchEmbeddings, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteByPath drops every vector of one source file and returns the
// distinct doc ids they pointed at.
func (v *VectorIndex) DeleteByPath(ctx context.Context, path string) ([]string, error) {
	rows, err := v.db.Query(ctx, deleteByPath, path)
	if err != nil {
		return nil, fmt.Errorf("delete vectors: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}
