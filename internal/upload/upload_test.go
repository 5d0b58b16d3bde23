package upload

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func openTestState(t *testing.T) *StateDB {
	t.Helper()
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = state.Close() })
	return state
}

func TestFindCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), "b")
	writeFile(t, filepath.Join(dir, "2026", "a.CSV"), "a")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, ".cache", "c.csv"), "c")

	files, err := findCSV(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "2026", "a.CSV"), filepath.Join(dir, "b.csv")}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestStateDB(t *testing.T) {
	ctx := context.Background()
	state := openTestState(t)

	if ok, err := state.IsUploaded(ctx, "a.csv", 10, "h1"); err != nil || ok {
		t.Fatalf("IsUploaded on empty db = %v, %v", ok, err)
	}
	if err := state.MarkUploaded(ctx, "a.csv", 10, "h1", 3); err != nil {
		t.Fatal(err)
	}
	if ok, _ := state.IsUploaded(ctx, "a.csv", 10, "h1"); !ok {
		t.Error("file should be marked uploaded")
	}
	if ok, _ := state.IsUploaded(ctx, "a.csv", 12, "h2"); ok {
		t.Error("changed file should not count as uploaded")
	}

	if v, err := state.SyncState(ctx, lastRunKey); err != nil || v != "" {
		t.Errorf("unset sync state = %q, %v", v, err)
	}
	if err := state.SetSyncState(ctx, lastRunKey, "2026-03-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if v, _ := state.SyncState(ctx, lastRunKey); v != "2026-03-01T00:00:00Z" {
		t.Errorf("sync state = %q", v)
	}
}

func TestUploaderRun(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if string(body) == "bad" {
			http.Error(w, `{"error":"parse"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"sessions_created":2,"sessions_skipped":1}`))
	}))
	defer ts.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.csv"), "one")
	writeFile(t, filepath.Join(dir, "two.csv"), "two")
	writeFile(t, filepath.Join(dir, "three.csv"), "bad")

	state := openTestState(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	stats, err := New(newTestClient(ts.URL), state, dir, false, log).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesTotal != 3 || stats.FilesUploaded != 2 || stats.FilesErrored != 1 {
		t.Errorf("stats = %+v, want 3 total, 2 uploaded, 1 errored", stats)
	}
	if stats.SessionsCreated != 4 || stats.SessionsSkipped != 2 {
		t.Errorf("sessions = %d created, %d skipped, want 4 and 2", stats.SessionsCreated, stats.SessionsSkipped)
	}
	if v, _ := state.SyncState(ctx, lastRunKey); v == "" {
		t.Error("last run not recorded")
	}

	// A second run only retries the failed file.
	calls.Store(0)
	stats, err = New(newTestClient(ts.URL), state, dir, false, log).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesSkipped != 2 || stats.FilesErrored != 1 {
		t.Errorf("second run stats = %+v, want 2 skipped, 1 errored", stats)
	}
	if calls.Load() != 1 {
		t.Errorf("second run calls = %d, want 1", calls.Load())
	}
}

func TestUploaderDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.csv"), "one")
	state := openTestState(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	stats, err := New(NewClient("http://127.0.0.1:1", "tok"), state, dir, true, log).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesTotal != 1 || stats.FilesUploaded != 0 || stats.FilesErrored != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if ok, _ := state.IsUploaded(context.Background(), "one.csv", 3, mustHash(t, filepath.Join(dir, "one.csv"))); ok {
		t.Error("dry run must not mark files uploaded")
	}
}

func mustHash(t *testing.T, path string) string {
	t.Helper()
	h, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return h
}
