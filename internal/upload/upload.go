// Package upload sends Alpha Progression CSV exports from a local
// directory to a fitlog server, once per file version.
package upload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const lastRunKey = "last_run"

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsCreated int
	SessionsSkipped int
}

// Uploader walks an export directory and uploads every CSV file the state
// db has not seen in its current form.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run uploads pending files in lexical order. A file that fails to upload
// is counted and left for the next run; a rejected file does not stop the
// others.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := findCSV(u.dir)
	if err != nil {
		return &u.stats, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.processFile(ctx, path); err != nil {
			u.stats.FilesErrored++
			u.log.Warn("upload failed", "file", path, "error", err)
		}
	}

	if !u.dryRun {
		if err := u.state.SetSyncState(ctx, lastRunKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
			u.log.Warn("failed to save sync state", "error", err)
		}
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	rel, err := filepath.Rel(u.dir, path)
	if err != nil {
		rel = path
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	uploaded, err := u.state.IsUploaded(ctx, rel, info.Size(), hash)
	if err != nil {
		return err
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	if u.dryRun {
		u.log.Info("dry-run: would upload", "file", rel, "bytes", info.Size())
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	result, err := u.client.ImportAlpha(ctx, data)
	if err != nil {
		return err
	}

	if err := u.state.MarkUploaded(ctx, rel, info.Size(), hash, result.SessionsCreated); err != nil {
		u.log.Warn("failed to mark uploaded", "file", rel, "error", err)
	}
	u.stats.FilesUploaded++
	u.stats.SessionsCreated += result.SessionsCreated
	u.stats.SessionsSkipped += result.SessionsSkipped

	u.log.Info("uploaded export",
		"file", rel,
		"sessions_created", result.SessionsCreated,
		"sessions_skipped", result.SessionsSkipped,
	)
	return nil
}

// findCSV lists *.csv files below dir, skipping hidden directories.
func findCSV(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}
