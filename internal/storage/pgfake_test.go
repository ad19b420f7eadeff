package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type fakeVector struct {
	docID, path string
	vec         []float32
}

// memDB answers the statements issued by PostgresDocStore and VectorIndex
// against in-memory tables.
type memDB struct {
	mu      sync.Mutex
	docs    map[string]string
	vectors []fakeVector
	execs   []string
}

func newMemDB() *memDB {
	return &memDB{docs: make(map[string]string)}
}

func (m *memDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execs = append(m.execs, sql)
	switch sql {
	case upsertDoc:
		m.docs[args[0].(string)] = args[1].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case deleteDocs:
		n := 0
		for _, id := range args[0].([]string) {
			if _, ok := m.docs[id]; ok {
				delete(m.docs, id)
				n++
			}
		}
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil
	case insertEmbedding:
		m.vectors = append(m.vectors, fakeVector{
			docID: args[0].(string),
			path:  args[1].(string),
			vec:   args[3].(pgvector.Vector).Slice(),
		})
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	if strings.HasPrefix(sql, "CREATE ") {
		return pgconn.NewCommandTag("CREATE"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %s", sql)
}

func (m *memDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch sql {
	case selectDocs:
		var rows [][]any
		for _, id := range args[0].([]string) {
			if text, ok := m.docs[id]; ok {
				rows = append(rows, []any{id, text})
			}
		}
		return &memRows{rows: rows}, nil
	case searchEmbeddings:
		q := args[0].(pgvector.Vector).Slice()
		k := args[1].(int)
		sorted := append([]fakeVector(nil), m.vectors...)
		sort.SliceStable(sorted, func(i, j int) bool { return l2(sorted[i].vec, q) < l2(sorted[j].vec, q) })
		var rows [][]any
		for i := 0; i < len(sorted) && i < k; i++ {
			rows = append(rows, []any{sorted[i].docID})
		}
		return &memRows{rows: rows}, nil
	case deleteByPath:
		var rows [][]any
		kept := m.vectors[:0]
		for _, v := range m.vectors {
			if v.path == args[0].(string) {
				rows = append(rows, []any{v.docID})
				continue
			}
			kept = append(kept, v)
		}
		m.vectors = kept
		return &memRows{rows: rows}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (m *memDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sql != selectDoc {
		return &memRows{err: fmt.Errorf("unexpected query row: %s", sql)}
	}
	text, ok := m.docs[args[0].(string)]
	if !ok {
		return &memRows{err: pgx.ErrNoRows}
	}
	return &memRows{rows: [][]any{{text}}}
}

func (m *memDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return &memBatch{db: m, ctx: ctx, queued: b.QueuedQueries}
}

func (m *memDB) vectorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

type memBatch struct {
	db     *memDB
	ctx    context.Context
	queued []*pgx.QueuedQuery
	next   int
}

func (b *memBatch) Exec() (pgconn.CommandTag, error) {
	if b.next >= len(b.queued) {
		return pgconn.CommandTag{}, fmt.Errorf("batch exhausted")
	}
	q := b.queued[b.next]
	b.next++
	return b.db.Exec(b.ctx, q.SQL, q.Arguments...)
}

func (b *memBatch) Query() (pgx.Rows, error) { return nil, fmt.Errorf("not supported") }
func (b *memBatch) QueryRow() pgx.Row        { return &memRows{err: fmt.Errorf("not supported")} }
func (b *memBatch) Close() error             { return nil }

// memRows serves both pgx.Rows and pgx.Row.
type memRows struct {
	rows [][]any
	pos  int
	err  error
}

func (r *memRows) Close()                                       {}
func (r *memRows) Err() error                                   { return nil }
func (r *memRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *memRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *memRows) RawValues() [][]byte                          { return nil }
func (r *memRows) Conn() *pgx.Conn                              { return nil }

func (r *memRows) Next() bool {
	if r.err != nil || r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *memRows) Values() ([]any, error) { return r.rows[r.pos-1], nil }

func (r *memRows) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.pos == 0 {
		if len(r.rows) == 0 {
			return pgx.ErrNoRows
		}
		r.pos = 1
	}
	row := r.rows[r.pos-1]
	for i, d := range dest {
		p, ok := d.(*string)
		if !ok {
			return fmt.Errorf("unsupported scan target %T", d)
		}
		*p = row[i].(string)
	}
	return nil
}

var _ DBTX = (*memDB)(nil)
