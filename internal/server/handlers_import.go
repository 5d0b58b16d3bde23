package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/romanpilnik/fitlog/internal/ingest"
	"github.com/romanpilnik/fitlog/internal/storage"
)

const maxImportBytes = 32 << 20

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := s.alpha.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes), uid)
	s.logImport(uid, "alpha", result, err, time.Since(start))
	if err != nil {
		s.log.Error("alpha import error", "user_id", uid, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	limit := queryLimit(r)
	if limit == 0 {
		limit = 50
	}
	logs, err := s.backend.QueryImportLogs(r.Context(), uid, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(logs))
}

// logImport records an import's outcome. It runs on its own context so an
// aborted request still leaves a log row.
func (s *Server) logImport(uid uuid.UUID, source string, result *ingest.Result, importErr error, d time.Duration) {
	entry := storage.ImportLog{
		UserID:     uid,
		Source:     source,
		Status:     "success",
		DurationMs: d.Milliseconds(),
	}
	if result != nil {
		entry.SessionsTotal = result.SessionsReceived
		entry.SessionsCreated = result.SessionsCreated
		entry.SessionsSkipped = result.SessionsSkipped
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.backend.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout for async logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
