package ingestion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kabilan942/Career-Compass-AI/internal/processing"
	"github.com/kabilan942/Career-Compass-AI/internal/storage"
)

type ChunkEmbedder interface {
	EmbedChunks(ctx context.Context, chunks []string) ([][]float32, error)
}

type VectorWriter interface {
	Insert(ctx context.Context, entries ...storage.Entry) error
	// DeleteByPath drops the vectors of one file and returns the doc ids
	// they pointed at.
	DeleteByPath(ctx context.Context, path string) ([]string, error)
}

type Stats struct {
	Files     int
	Skipped   int
	Documents int
	Vectors   int
	// Methods counts indexed files per extraction route.
	Methods map[Method]int
}

func (s *Stats) Add(o Stats) {
	s.Files += o.Files
	s.Skipped += o.Skipped
	s.Documents += o.Documents
	s.Vectors += o.Vectors
	if len(o.Methods) > 0 && s.Methods == nil {
		s.Methods = make(map[Method]int, len(o.Methods))
	}
	for m, n := range o.Methods {
		s.Methods[m] += n
	}
}

// Indexer turns bulletin files into docstore documents and the child
// chunk vectors that point at them. Parent chunks are stored whole; each
// is cut again into smaller child chunks for embedding.
//
// Files are keyed by their path relative to the index root and parent ids
// are derived from that key, so indexing a file again replaces its
// documents instead of adding to them.
type Indexer struct {
	Extract     func(path string) (Extraction, error)
	Parent      processing.Chunker
	Child       processing.Chunker
	Concurrency int

	embedder ChunkEmbedder
	index    VectorWriter
	docs     storage.DocStore
	logger   *zap.Logger
}

func NewIndexer(embedder ChunkEmbedder, index VectorWriter, docs storage.DocStore, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		Extract:     Extract,
		Parent:      processing.Chunker{MaxRunes: 2000, Overlap: 200},
		Child:       processing.Chunker{MaxRunes: 400, Overlap: 50},
		Concurrency: 4,
		embedder:    embedder,
		index:       index,
		docs:        docs,
		logger:      logger.With(zap.String("component", "indexer")),
	}
}

// IndexFiles indexes paths found under root concurrently. Files that cannot
// be extracted are skipped and counted; storage and embedding failures
// abort the run.
func (ix *Indexer) IndexFiles(ctx context.Context, root string, paths []string, source string) (Stats, error) {
	var (
		mu    sync.Mutex
		stats = Stats{Methods: make(map[Method]int)}
	)
	g, gctx := errgroup.WithContext(ctx)
	limit := ix.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, p := range paths {
		g.Go(func() error {
			res, err := ix.indexFile(gctx, FileKey(root, p), p, source)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, errSkipped) {
				stats.Skipped++
				return nil
			}
			if err != nil {
				return fmt.Errorf("index %s: %w", p, err)
			}
			stats.Files++
			stats.Documents += res.documents
			stats.Vectors += res.vectors
			stats.Methods[res.method]++
			return nil
		})
	}
	err := g.Wait()
	return stats, err
}

// FileKey names path relative to root in slash form. Paths outside root,
// or a root that is the file itself, fall back to the cleaned path.
func FileKey(root, path string) string {
	if root != "" {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

var docNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("career-compass/docstore"))

// parentID is stable for the n-th parent chunk of a file.
func parentID(source, key string, n int) string {
	return uuid.NewSHA1(docNamespace, []byte(source+":"+key+"#"+strconv.Itoa(n))).String()
}

var (
	errSkipped = errors.New("skipped")
	timeNow    = time.Now
)

type fileResult struct {
	documents int
	vectors   int
	method    Method
}

func (ix *Indexer) indexFile(ctx context.Context, key, path, source string) (fileResult, error) {
	log := ix.logger.With(zap.String("file", key))

	ext, err := ix.Extract(path)
	if err != nil {
		log.Warn("extraction failed, skipping", zap.Error(err))
		return fileResult{}, errSkipped
	}
	parents := ix.Parent.Split(ext.Text)
	if len(parents) == 0 {
		log.Warn("no text extracted, skipping", zap.String("method", string(ext.Method)))
		return fileResult{}, errSkipped
	}

	meta := processing.NewMetadata(path, source, timeNow())
	docs := make(map[string]string, len(parents))
	var entries []storage.Entry
	for i, parent := range parents {
		id := parentID(source, key, i)
		docs[id] = parent

		embs, err := ix.embedder.EmbedChunks(ctx, ix.Child.Split(parent))
		if err != nil {
			return fileResult{}, err
		}
		for _, e := range embs {
			entries = append(entries, storage.Entry{DocID: id, Path: key, Source: meta.Source, Embedding: e})
		}
	}

	// Previous vectors go only once the new ones are ready, so a failed
	// embedding run leaves the old copy searchable.
	prev, err := ix.index.DeleteByPath(ctx, key)
	if err != nil {
		return fileResult{}, fmt.Errorf("clear previous vectors: %w", err)
	}
	var stale []string
	for _, id := range prev {
		if _, ok := docs[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := ix.docs.MDelete(ctx, stale); err != nil {
		return fileResult{}, fmt.Errorf("drop stale documents: %w", err)
	}
	if err := ix.docs.MSet(ctx, docs); err != nil {
		return fileResult{}, err
	}
	if err := ix.index.Insert(ctx, entries...); err != nil {
		return fileResult{}, err
	}
	log.Info("indexed file",
		zap.String("title", meta.Title),
		zap.String("method", string(ext.Method)),
		zap.Int("documents", len(docs)),
		zap.Int("vectors", len(entries)),
		zap.Int("stale", len(stale)),
	)
	return fileResult{documents: len(docs), vectors: len(entries), method: ext.Method}, nil
}
