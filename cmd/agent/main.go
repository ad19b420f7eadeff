package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/kabilan942/Career-Compass-AI/internal/ingestion"
	"github.com/kabilan942/Career-Compass-AI/internal/metrics"
	"github.com/kabilan942/Career-Compass-AI/internal/processing"
	"github.com/kabilan942/Career-Compass-AI/internal/server"
	"github.com/kabilan942/Career-Compass-AI/internal/session"
	"github.com/kabilan942/Career-Compass-AI/internal/storage"
)

const usage = "Usage: agent <index|query|serve|import-docstore> [flags]"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "index":
		err = runIndex(ctx, os.Args[2:])
	case "query":
		err = runQuery(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "import-docstore":
		err = runImport(ctx, os.Args[2:])
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runIndex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	path := fs.String("path", "./data", "path to folder to index")
	driveFolder := fs.String("drive-folder", "", "Google Drive folder id to index as well")
	_ = fs.Parse(args)

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requirePostgresDocStore("index"); err != nil {
		return err
	}

	ix := ingestion.NewIndexer(a.embedder, a.index, a.docs, a.logger)
	ix.Concurrency = a.cfg.Pipeline.Concurrency

	a.logger.Info("starting indexing", zap.String("path", *path))
	files, err := ingestion.LoadLocalFiles(*path)
	if err != nil {
		return fmt.Errorf("load files: %w", err)
	}
	total, err := ix.IndexFiles(ctx, *path, files, processing.SourceLocal)
	if err != nil {
		return err
	}

	folder := *driveFolder
	if folder == "" {
		folder = a.cfg.Drive.FolderID
	}
	if folder != "" {
		stats, err := indexDrive(ctx, a, ix, folder)
		if err != nil {
			return err
		}
		total.Add(stats)
	}

	fmt.Printf("Indexing complete: %d files, %d skipped, %d documents, %d vectors.\n",
		total.Files, total.Skipped, total.Documents, total.Vectors)
	for _, m := range []ingestion.Method{ingestion.MethodPlain, ingestion.MethodTextLayer, ingestion.MethodPDFToText, ingestion.MethodOCR} {
		if n := total.Methods[m]; n > 0 {
			fmt.Printf("  %-15s %d\n", m, n)
		}
	}
	return nil
}

func indexDrive(ctx context.Context, a *app, ix *ingestion.Indexer, folder string) (ingestion.Stats, error) {
	if a.cfg.Drive.CredentialsFile == "" {
		return ingestion.Stats{}, fmt.Errorf("drive folder %s given but no credentials file configured", folder)
	}
	client, err := ingestion.NewDriveClient(ctx, a.cfg.Drive.CredentialsFile)
	if err != nil {
		return ingestion.Stats{}, err
	}
	dir, err := os.MkdirTemp("", "bulletins-drive-")
	if err != nil {
		return ingestion.Stats{}, err
	}
	defer os.RemoveAll(dir)

	paths, err := ingestion.NewDriveSource(client, a.logger).Fetch(ctx, folder, dir)
	if err != nil {
		return ingestion.Stats{}, err
	}
	return ix.IndexFiles(ctx, dir, paths, processing.SourceDrive)
}

func runQuery(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	q := fs.String("q", "", "query text")
	sessionID := fs.String("session", "", "session id to continue")
	_ = fs.Parse(args)

	if *q == "" {
		return errors.New(`please provide -q "your query"`)
	}

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	orch, err := a.orchestrator(nil)
	if err != nil {
		return err
	}
	repo, err := a.sessionRepository(ctx)
	if err != nil {
		return err
	}

	res, err := session.NewService(repo, orch, a.logger, session.WithTurnTimeout(a.cfg.Pipeline.TurnTimeout)).HandleTurn(ctx, *sessionID, *q)
	if err != nil {
		return err
	}
	fmt.Println("Answer:", res.Answer)
	fmt.Println("Session:", res.SessionID)
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	_ = fs.Parse(args)

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	orch, err := a.orchestrator(collector)
	if err != nil {
		return err
	}
	repo, err := a.sessionRepository(ctx)
	if err != nil {
		return err
	}
	svc := session.NewService(repo, orch, a.logger, session.WithTurnTimeout(a.cfg.Pipeline.TurnTimeout))

	return server.New(ctx, a.cfg.Server, svc, collector, reg, a.logger).Run(ctx)
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import-docstore", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	file := fs.String("file", "docstore.json", "JSON docstore export")
	_ = fs.Parse(args)

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requirePostgresDocStore("import-docstore"); err != nil {
		return err
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := storage.ImportJSON(ctx, a.docs, f)
	if err != nil {
		return err
	}
	a.logger.Info("docstore imported", zap.String("file", *file), zap.Int("documents", n))
	fmt.Printf("Imported %d documents.\n", n)
	return nil
}
