package ingestion

import (
	"context"
	"errors"
	"io"
	"os"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabilan942/Career-Compass-AI/internal/processing"
	"github.com/kabilan942/Career-Compass-AI/internal/storage"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadLocalFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", "x")
	writeFile(t, dir, "nested/a.TXT", "x")
	writeFile(t, dir, "notes.docx", "x")
	writeFile(t, dir, "scan.png", "x")

	files, err := LoadLocalFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "nested/a.TXT"),
		filepath.Join(dir, "scan.png"),
	}, files)
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "bulletin.md", "# JEE Advanced\n\nEligibility criteria")

	got, err := Extract(txt)
	require.NoError(t, err)
	assert.Equal(t, Extraction{Text: "# JEE Advanced\n\nEligibility criteria", Method: MethodPlain}, got)

	_, err = Extract(filepath.Join(dir, "sheet.xlsx"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Extract(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

type fakeDrive struct {
	files  []DriveFile
	bodies map[string]string
	err    error
}

func (f *fakeDrive) ListFolder(_ context.Context, _ string) ([]DriveFile, error) {
	return f.files, f.err
}

func (f *fakeDrive) Open(_ context.Context, file DriveFile) (io.ReadCloser, error) {
	body, ok := f.bodies[file.ID]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestDriveSource_Fetch(t *testing.T) {
	client := &fakeDrive{
		files: []DriveFile{
			{ID: "1", Name: "IB_2025.pdf", MimeType: "application/pdf"},
			{ID: "2", Name: "FAQ", MimeType: googleDocMime},
			{ID: "3", Name: "sheet.xlsx", MimeType: "application/vnd.ms-excel"},
		},
		bodies: map[string]string{"1": "%PDF", "2": "faq text"},
	}
	dir := t.TempDir()

	paths, err := NewDriveSource(client, nil).Fetch(context.Background(), "folder", dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "1_IB_2025.pdf"),
		filepath.Join(dir, "2_FAQ.txt"),
	}, paths)

	b, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "faq text", string(b))
}

func TestDriveSource_FetchErrors(t *testing.T) {
	boom := errors.New("quota")
	_, err := NewDriveSource(&fakeDrive{err: boom}, nil).Fetch(context.Background(), "f", t.TempDir())
	assert.ErrorIs(t, err, boom)

	client := &fakeDrive{files: []DriveFile{{ID: "9", Name: "a.txt"}}}
	_, err = NewDriveSource(client, nil).Fetch(context.Background(), "f", t.TempDir())
	assert.ErrorContains(t, err, "download a.txt")
}

type countingEmbedder struct {
	mu     sync.Mutex
	chunks int
	err    error
}

func (c *countingEmbedder) EmbedChunks(_ context.Context, chunks []string) ([][]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.mu.Lock()
	c.chunks += len(chunks)
	c.mu.Unlock()
	out := make([][]float32, len(chunks))
	for i := range out {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

type memoryIndex struct {
	mu      sync.Mutex
	entries []storage.Entry
	deleted []string
}

func (m *memoryIndex) Insert(_ context.Context, entries ...storage.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memoryIndex) DeleteByPath(_ context.Context, path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, path)

	var ids []string
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.Path != path {
			kept = append(kept, e)
			continue
		}
		if !slices.Contains(ids, e.DocID) {
			ids = append(ids, e.DocID)
		}
	}
	m.entries = kept
	return ids, nil
}

func (m *memoryIndex) docIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, e := range m.entries {
		if !slices.Contains(ids, e.DocID) {
			ids = append(ids, e.DocID)
		}
	}
	return ids
}

func TestIndexer_IndexFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "Eligibility\n\nAge limit\n\nReservation")
	b := writeFile(t, dir, "b.md", "abcdefghij")
	empty := writeFile(t, dir, "empty.txt", "   \n\n ")
	unsupported := filepath.Join(dir, "c.xlsx")

	emb := &countingEmbedder{}
	idx := &memoryIndex{}
	docs := storage.NewMemoryDocStore()

	ix := NewIndexer(emb, idx, docs, nil)
	ix.Child = processing.Chunker{MaxRunes: 4, Overlap: 0}
	ix.Concurrency = 2

	stats, err := ix.IndexFiles(context.Background(), dir, []string{a, b, empty, unsupported}, processing.SourceLocal)
	require.NoError(t, err)

	assert.Equal(t, Stats{Files: 2, Skipped: 2, Documents: 4, Vectors: 12, Methods: map[Method]int{MethodPlain: 2}}, stats)
	assert.Equal(t, 4, docs.Len())
	assert.Len(t, idx.entries, 12)
	assert.ElementsMatch(t, []string{"a.txt", "b.md"}, idx.deleted)

	for _, e := range idx.entries {
		text, err := docs.Get(context.Background(), e.DocID)
		require.NoError(t, err, "vector must point at a stored document")
		assert.NotEmpty(t, text)
		assert.Equal(t, processing.SourceLocal, e.Source)
	}
}

func TestIndexer_SameNameInDifferentDirectories(t *testing.T) {
	dir := t.TempDir()
	mains := writeFile(t, dir, "mains/bulletin.txt", "JEE Main has two sessions.")
	advanced := writeFile(t, dir, "advanced/bulletin.txt", "JEE Advanced has two papers.")

	idx := &memoryIndex{}
	docs := storage.NewMemoryDocStore()
	ix := NewIndexer(&countingEmbedder{}, idx, docs, nil)
	ix.Concurrency = 2

	stats, err := ix.IndexFiles(context.Background(), dir, []string{mains, advanced}, processing.SourceLocal)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)

	var paths []string
	for _, e := range idx.entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{"mains/bulletin.txt", "advanced/bulletin.txt"}, paths)
	assert.Equal(t, 2, docs.Len())

	texts, err := docs.MGet(context.Background(), idx.docIDs())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"JEE Main has two sessions.", "JEE Advanced has two papers."}, slices.Collect(maps.Values(texts)))
}

func TestIndexer_ReindexReplacesDocuments(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := writeFile(t, dir, "faq.txt", "Eligibility\n\nAge limit\n\nReservation")

	idx := &memoryIndex{}
	docs := storage.NewMemoryDocStore()
	ix := NewIndexer(&countingEmbedder{}, idx, docs, nil)

	_, err := ix.IndexFiles(ctx, dir, []string{p}, processing.SourceLocal)
	require.NoError(t, err)
	first := idx.docIDs()
	require.Len(t, first, 3)

	_, err = ix.IndexFiles(ctx, dir, []string{p}, processing.SourceLocal)
	require.NoError(t, err)
	assert.Equal(t, 3, docs.Len())
	assert.Len(t, idx.entries, 3)
	assert.ElementsMatch(t, first, idx.docIDs())

	writeFile(t, dir, "faq.txt", "Eligibility only")
	stats, err := ix.IndexFiles(ctx, dir, []string{p}, processing.SourceLocal)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, docs.Len(), "parents of the longer version must be dropped")
	require.Len(t, idx.entries, 1)

	text, err := docs.Get(ctx, idx.entries[0].DocID)
	require.NoError(t, err)
	assert.Equal(t, "Eligibility only", text)
}

func TestIndexer_FailedEmbeddingKeepsPreviousCopy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", "Counselling schedule")

	idx := &memoryIndex{}
	docs := storage.NewMemoryDocStore()
	emb := &countingEmbedder{}
	ix := NewIndexer(emb, idx, docs, nil)
	_, err := ix.IndexFiles(ctx, dir, []string{p}, processing.SourceLocal)
	require.NoError(t, err)

	emb.err = errors.New("ollama down")
	_, err = ix.IndexFiles(ctx, dir, []string{p}, processing.SourceLocal)
	require.Error(t, err)
	assert.Len(t, idx.entries, 1)
	assert.Equal(t, 1, docs.Len())
}

func TestIndexer_CountsExtractionMethods(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "a.txt", "Choice filling")
	scan := filepath.Join(dir, "cutoffs.png")

	ix := NewIndexer(&countingEmbedder{}, &memoryIndex{}, storage.NewMemoryDocStore(), nil)
	ix.Extract = func(path string) (Extraction, error) {
		if path == scan {
			return Extraction{Text: "Closing ranks", Method: MethodOCR}, nil
		}
		return Extract(path)
	}

	stats, err := ix.IndexFiles(context.Background(), dir, []string{txt, scan}, processing.SourceLocal)
	require.NoError(t, err)
	assert.Equal(t, map[Method]int{MethodPlain: 1, MethodOCR: 1}, stats.Methods)
}

func TestFileKey(t *testing.T) {
	root := filepath.Join("data", "bulletins")
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{"nested", root, filepath.Join(root, "mains", "ib.pdf"), "mains/ib.pdf"},
		{"top level", root, filepath.Join(root, "ib.pdf"), "ib.pdf"},
		{"no root", "", filepath.Join(root, "ib.pdf"), "data/bulletins/ib.pdf"},
		{"root is the file", filepath.Join(root, "ib.pdf"), filepath.Join(root, "ib.pdf"), "data/bulletins/ib.pdf"},
		{"outside root", root, filepath.Join("data", "other", "ib.pdf"), "data/other/ib.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileKey(tt.root, tt.path))
		})
	}
}

func TestParentID_Stable(t *testing.T) {
	assert.Equal(t, parentID("local", "mains/ib.pdf", 0), parentID("local", "mains/ib.pdf", 0))
	assert.NotEqual(t, parentID("local", "mains/ib.pdf", 0), parentID("local", "advanced/ib.pdf", 0))
	assert.NotEqual(t, parentID("local", "ib.pdf", 0), parentID("local", "ib.pdf", 1))
	assert.NotEqual(t, parentID("local", "ib.pdf", 0), parentID("gdrive", "ib.pdf", 0))
}

func TestIndexer_EmbeddingFailureAborts(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "text")
	boom := errors.New("ollama down")

	ix := NewIndexer(&countingEmbedder{err: boom}, &memoryIndex{}, storage.NewMemoryDocStore(), nil)
	_, err := ix.IndexFiles(context.Background(), dir, []string{a}, processing.SourceLocal)
	assert.ErrorIs(t, err, boom)
}

func TestStats_Add(t *testing.T) {
	var total Stats
	total.Add(Stats{Files: 1, Vectors: 3, Methods: map[Method]int{MethodPlain: 1}})
	total.Add(Stats{Files: 2, Skipped: 1, Documents: 4, Methods: map[Method]int{MethodPlain: 1, MethodOCR: 1}})
	assert.Equal(t, Stats{Files: 3, Skipped: 1, Documents: 4, Vectors: 3, Methods: map[Method]int{MethodPlain: 2, MethodOCR: 1}}, total)
}
