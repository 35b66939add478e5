package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pritechvior/project-wizard/internal/backend"
	"github.com/pritechvior/project-wizard/internal/config"
	"github.com/pritechvior/project-wizard/internal/health"
	"github.com/pritechvior/project-wizard/internal/intake"
	"github.com/pritechvior/project-wizard/internal/models"
	"github.com/pritechvior/project-wizard/internal/notify"
)

// Catalog serves reference data to the API
type Catalog interface {
	Load(ctx context.Context, ut models.UserType) (*models.ReferenceData, []models.Notice)
	Refresh(ctx context.Context, ut models.UserType) (*models.ReferenceData, []models.Notice)
	RefreshAll(ctx context.Context) int
	Invalidate()
}

// Archives is the project archive of the backend. token is the caller's
// bearer token, empty for anonymous calls.
type Archives interface {
	GetArchives(ctx context.Context, params url.Values) ([]backend.Archive, error)
	GetArchive(ctx context.Context, id string) (*backend.Archive, error)
	GetArchiveComments(ctx context.Context, id string) ([]backend.ArchiveComment, error)
	AddComment(ctx context.Context, id, comment string, rating int, token string) (*backend.ArchiveComment, error)
	RequestDownload(ctx context.Context, id, email, message, token string) error
	GetDownloadInfo(ctx context.Context, id, token string) (*backend.DownloadInfo, error)
}

// Dependencies are the services the API is built on
type Dependencies struct {
	Manager  intake.Manager
	Catalog  Catalog
	Archives Archives
	Hardware []models.HardwareItem
	Health   *health.Registry
	Hub      *notify.Hub
}

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	manager  intake.Manager
	catalog  Catalog
	archives Archives
	hardware []models.HardwareItem
	health   *health.Registry
	hub      *notify.Hub
	auth     *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	s := &Server{
		config:   cfg,
		manager:  deps.Manager,
		catalog:  deps.Catalog,
		archives: deps.Archives,
		hardware: deps.Hardware,
		health:   deps.Health,
		hub:      deps.Hub,
		auth:     NewAuthMiddleware(cfg.AdminAPIKeys),
	}
	if s.health == nil {
		s.health = health.NewRegistry(0)
	}
	if s.hub == nil {
		s.hub = notify.NewHub(0)
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	timeout := middleware.Timeout(60 * time.Second)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(timeout).Get("/health", s.handleHealth)
		r.With(timeout).Get("/ready", s.handleReady)

		r.Route("/wizards", func(r chi.Router) {
			r.With(timeout).Post("/", s.handleCreateWizard)

			r.Route("/{id}", func(r chi.Router) {
				// websocket streams outlive the request timeout
				r.Get("/live", s.handleLive)

				r.Group(func(r chi.Router) {
					r.Use(timeout)
					r.Get("/", s.handleGetWizard)
					r.Delete("/", s.handleDeleteWizard)
					r.Put("/fields/{name}", s.handleUpdateField)
					r.Post("/fields/{name}/toggle", s.handleToggleField)
					r.Post("/next", s.handleNext)
					r.Post("/prev", s.handlePrev)
					r.Get("/estimate", s.handleEstimate)
					r.Post("/submit", s.handleSubmit)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Route("/submissions", func(r chi.Router) {
				r.Use(s.auth.Authenticate)
				r.Get("/", s.handleListSubmissions)
				r.Get("/{reference}", s.handleGetSubmission)
			})

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/", s.handleGetCatalog)
				r.Get("/hardware", s.handleGetHardware)
				r.With(s.auth.Authenticate).Post("/refresh", s.handleRefreshCatalog)
			})

			r.Route("/archives", func(r chi.Router) {
				r.Get("/", s.handleListArchives)
				r.Get("/{id}", s.handleGetArchive)
				r.Get("/{id}/comments", s.handleGetArchiveComments)
				r.Post("/{id}/add_comment", s.handleAddArchiveComment)
				r.Post("/{id}/request_download", s.handleRequestArchiveDownload)
				r.Post("/{id}/download", s.handleArchiveDownload)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
