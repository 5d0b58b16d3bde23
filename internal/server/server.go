package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/romanpilnik/fitlog/internal/auth"
	"github.com/romanpilnik/fitlog/internal/ingest/alpha"
	"github.com/romanpilnik/fitlog/internal/mcp"
	"github.com/romanpilnik/fitlog/internal/metrics"
	"github.com/romanpilnik/fitlog/internal/storage"
	"github.com/romanpilnik/fitlog/internal/training"
)

// Backend is what the HTTP layer needs from persistence besides the
// training service.
type Backend interface {
	Ping(ctx context.Context) error
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID uuid.UUID, limit int) ([]storage.ImportLog, error)
}

var _ Backend = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     *training.Service
	backend Backend
	alpha   *alpha.Provider
	tokens  *auth.Issuer
	metrics *metrics.Manager
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(svc *training.Service, backend Backend, alphaProvider *alpha.Provider, tokens *auth.Issuer, m *metrics.Manager, log *slog.Logger) *Server {
	s := &Server{
		svc:     svc,
		backend: backend,
		alpha:   alphaProvider,
		tokens:  tokens,
		metrics: m,
		log:     log,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log, s.metrics))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(s.tokens))

		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{id}", s.handleGetTemplate)

		r.Get("/programs", s.handleListPrograms)
		r.Post("/programs", s.handleCreateProgram)
		r.Post("/programs/from-template", s.handleCreateFromTemplate)
		r.Get("/programs/active", s.handleActiveProgram)
		r.Get("/programs/active/next", s.handleNextWorkout)
		r.Get("/programs/{id}", s.handleGetProgram)
		r.Patch("/programs/{id}", s.handleUpdateProgram)
		r.Delete("/programs/{id}", s.handleDeleteProgram)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/apply", s.handleReapplySession)

		r.Get("/ledger", s.handleListLedger)
		r.Get("/ledger/{exerciseID}", s.handleGetLedger)
		r.Patch("/ledger/{exerciseID}", s.handleUpdateLedger)

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleCreateExercise)

		r.Post("/import/alpha", s.handleAlphaImport)
		r.Get("/import/logs", s.handleImportLogs)
	})
}

// SetMetrics exposes the collectors of g on /metrics.
func (s *Server) SetMetrics(g prometheus.Gatherer) {
	s.router.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// MountMCP serves the MCP server over streamable HTTP on /mcp. Tools run
// as the user of the bearer token.
func (s *Server) MountMCP(srv *mcpserver.MCPServer) {
	h := mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return mcp.WithUserID(ctx, userIDFromContext(r))
		}),
	)
	s.router.With(BearerAuth(s.tokens)).Handle("/mcp", h)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
