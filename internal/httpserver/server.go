package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"artisan_dispo/internal/config"
	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/metrics"
	"artisan_dispo/internal/services/artisan"
	"artisan_dispo/internal/services/demande"
	"artisan_dispo/internal/services/matching"
	"artisan_dispo/internal/services/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
)

// Server is the REST surface of the platform.
type Server struct {
	log      *slog.Logger
	cfg      config.HTTPConfig
	secret   string
	validate *validator.Validate

	users    *user.Service
	artisans *artisan.Service
	demandes *demande.Service
	matcher  *matching.Service
	metrics  *metrics.Metrics

	httpServer *http.Server
}

func New(
	log *slog.Logger,
	cfg config.HTTPConfig,
	secret string,
	users *user.Service,
	artisans *artisan.Service,
	demandes *demande.Service,
	matcher *matching.Service,
	m *metrics.Metrics,
) *Server {
	s := &Server{
		log:      log,
		cfg:      cfg,
		secret:   secret,
		validate: validator.New(),
		users:    users,
		artisans: artisans,
		demandes: demandes,
		matcher:  matcher,
		metrics:  m,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(s.log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/recherche", s.handleSearch)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.secret))

			r.Get("/me", s.handleMe)

			r.Route("/artisans", func(r chi.Router) {
				r.Get("/{id}", s.handleGetArtisan)
				r.With(requireRole(domain.RoleClient)).Post("/{id}/reviews", s.handleAddReview)

				r.Group(func(r chi.Router) {
					r.Use(requireRole(domain.RoleArtisan))
					r.Post("/", s.handleRegisterArtisan)
					r.Patch("/me", s.handleUpdateArtisan)
					r.Put("/me/availability", s.handleSetAvailability)
					r.Put("/me/weekly-pattern", s.handleSetWeeklyPattern)
					r.Post("/me/documents", s.handleUploadDocument)
					r.Get("/me/demandes", s.handleOpenDemandes)
				})
			})

			r.Route("/demandes", func(r chi.Router) {
				r.Post("/", s.handleCreateDemande)
				r.Get("/", s.handleListDemandes)
				r.Get("/{id}", s.handleGetDemande)
				r.Post("/{id}/publish", s.handlePublishDemande)
				r.Post("/{id}/cancel", s.handleCancelDemande)
				r.Get("/{id}/devis", s.handleListDevis)
				r.With(requireRole(domain.RoleArtisan)).Post("/{id}/devis", s.handleSubmitDevis)
			})

			r.Post("/devis/{id}/accept", s.handleAcceptDevis)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(domain.RoleAdmin))
				r.Get("/metrics", s.handleMetrics)
				r.Put("/artisans/{id}/verification", s.handleSetVerification)
			})
		})
	})

	return r
}

// Run blocks serving HTTP until the listener fails or Stop is called.
func (s *Server) Run() error {
	const op = "httpserver.Server.Run"

	s.log.Info("http server started", slog.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping http server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
