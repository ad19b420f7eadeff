package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kabilan942/Career-Compass-AI/internal/config"
	"github.com/kabilan942/Career-Compass-AI/internal/graph"
	"github.com/kabilan942/Career-Compass-AI/internal/llm"
	"github.com/kabilan942/Career-Compass-AI/internal/logging"
	"github.com/kabilan942/Career-Compass-AI/internal/processing"
	"github.com/kabilan942/Career-Compass-AI/internal/session"
	"github.com/kabilan942/Career-Compass-AI/internal/storage"
)

// app holds the shared dependencies of every subcommand.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	pool     *pgxpool.Pool
	docs     storage.DocStore
	index    *storage.VectorIndex
	embedder *processing.Embedder
	closers  []func()
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := storage.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureSchema(ctx, pool, cfg.Ollama.EmbeddingDim); err != nil {
		pool.Close()
		return nil, err
	}

	var docs storage.DocStore = storage.NewPostgresDocStore(pool)
	if cfg.DocStore.Backend == config.BackendMemory {
		mem, err := storage.LoadMemoryDocStore(ctx, cfg.DocStore.File)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("docstore loaded into memory", zap.String("file", cfg.DocStore.File), zap.Int("documents", mem.Len()))
		docs = mem
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		docs:     docs,
		index:    storage.NewVectorIndex(pool),
		embedder: processing.NewEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.EmbeddingModel, cfg.Ollama.EmbeddingDim, cfg.Ollama.Timeout),
	}
	a.closers = append(a.closers, pool.Close, func() { _ = logger.Sync() })
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// requirePostgresDocStore rejects writes that a memory docstore would lose
// on exit.
func (a *app) requirePostgresDocStore(cmd string) error {
	if a.cfg.DocStore.Backend != config.BackendPostgres {
		return fmt.Errorf("%s writes parent documents to postgres, docstore backend is %q", cmd, a.cfg.DocStore.Backend)
	}
	return nil
}

func (a *app) orchestrator(observer graph.Observer) (*graph.Orchestrator, error) {
	chat := llm.NewOllamaClient(a.cfg.Ollama.BaseURL, a.cfg.Ollama.ChatModel, a.cfg.Ollama.Timeout)
	collab := graph.Collaborators{
		Retriever: storage.NewMultiVectorRetriever(a.embedder, a.index, a.docs, a.cfg.Pipeline.TopK, a.logger),
		Grader:    llm.NewGrader(chat),
		Rewriter:  llm.NewRewriter(chat),
		Refiner:   llm.NewRefiner(chat),
		Generator: llm.NewGenerator(chat),
	}
	return graph.New(collab,
		graph.WithCallTimeout(a.cfg.Pipeline.CallTimeout),
		graph.WithLogger(a.logger),
		graph.WithObserver(observer))
}

func (a *app) sessionRepository(ctx context.Context) (session.Repository, error) {
	switch a.cfg.Session.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, func() { _ = client.Close() })
		return session.NewRedisRepository(client, a.cfg.Session.TTL), nil
	case config.BackendPostgres:
		db, err := session.OpenPostgres(a.cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		repo := session.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure sessions table: %w", err)
		}
		return repo, nil
	default:
		return session.NewMemoryRepository(a.cfg.Session.TTL), nil
	}
}
