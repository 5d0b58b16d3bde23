package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/config"
	"github.com/romanpilnik/fitlog/internal/ingest"
	"github.com/romanpilnik/fitlog/internal/ingest/alpha"
	"github.com/romanpilnik/fitlog/internal/storage"
	"github.com/romanpilnik/fitlog/internal/training"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	login := flag.String("user", "", "login of the user the sessions belong to (required)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *login == "" || flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: fitlog-import -config config.yaml -user <login> export.csv [more.csv ...]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userID, err := db.GetOrCreateUser(ctx, *login, *login)
	if err != nil {
		log.Error("failed to resolve user", "login", *login, "error", err)
		os.Exit(1)
	}

	svc := training.New(db, log, training.WithAdvanceRetries(cfg.Training.AdvanceRetries))
	provider := alpha.NewProvider(svc, log)

	failed := false
	for _, path := range flag.Args() {
		start := time.Now()
		result, err := importFile(ctx, provider, path, userID)
		logEntry := storage.ImportLog{
			UserID:     userID,
			Source:     "alpha_cli",
			Status:     "success",
			DurationMs: time.Since(start).Milliseconds(),
		}
		if result != nil {
			logEntry.SessionsTotal = result.SessionsReceived
			logEntry.SessionsCreated = result.SessionsCreated
			logEntry.SessionsSkipped = result.SessionsSkipped
		}
		if err != nil {
			failed = true
			msg := err.Error()
			logEntry.Status = "error"
			logEntry.ErrorMessage = &msg
			log.Error("import failed", "file", path, "error", err)
		} else {
			log.Info("import stats",
				"file", path,
				"sessions_received", result.SessionsReceived,
				"sessions_created", result.SessionsCreated,
				"sessions_skipped", result.SessionsSkipped,
				"sessions_rejected", result.SessionsRejected,
				"ledger_updated", result.LedgerUpdated,
			)
		}
		if _, err := db.InsertImportLog(ctx, logEntry); err != nil {
			log.Warn("failed to write import log", "error", err)
		}
	}

	if failed {
		os.Exit(1)
	}
	log.Info("import complete")
}

func importFile(ctx context.Context, p *alpha.Provider, path string, userID uuid.UUID) (*ingest.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Ingest(ctx, f, userID)
}
