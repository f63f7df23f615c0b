package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// DefaultMaxUpload bounds multipart uploads.
const DefaultMaxUpload int64 = 512 << 20

var (
	// ErrMissingAnswerService is returned when the answer service is not provided.
	ErrMissingAnswerService = errors.New("httpapi: answer service is required")

	// ErrMissingIngestionService is returned when the ingestion service is not provided.
	ErrMissingIngestionService = errors.New("httpapi: ingestion service is required")
)

// Ports aggregates the driving ports the HTTP API serves.
type Ports struct {
	Answer driving.AnswerService
	Ingest driving.IngestionService
}

// Config holds HTTP server configuration.
type Config struct {
	// MaxUpload bounds the request body of upload endpoints.
	MaxUpload int64

	// RequestTimeout bounds a single request. Zero disables the timeout.
	// Video and YouTube ingestion can take minutes.
	RequestTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	ports  *Ports
	cfg    Config
	router chi.Router
}

// NewServer creates the API server and registers its routes.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if ports == nil || ports.Answer == nil {
		return nil, ErrMissingAnswerService
	}
	if ports.Ingest == nil {
		return nil, ErrMissingIngestionService
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}

	s := &Server{ports: ports, cfg: cfg}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ingest", func(r chi.Router) {
			r.Post("/document", s.handleIngestDocument) // multipart "file"
			r.Post("/video", s.handleIngestVideo)       // multipart "file"
			r.Post("/url", s.handleIngestURL)           // {"url": ...}
			r.Post("/youtube", s.handleIngestYouTube)   // {"url": ...}
		})
		r.Post("/ask", s.handleAsk)
		r.Get("/history", s.handleHistory)
		r.Get("/ingestions", s.handleIngestHistory)
		r.Get("/sources", s.handleSources)
	})

	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("http api listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond),
			middleware.GetReqID(r.Context()))
	})
}
