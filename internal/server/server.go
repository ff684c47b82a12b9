// Package server wires the HTTP router: it assembles the dependency
// chain (DB → services → handlers), mounts routes and middleware, and
// runs the listener with graceful shutdown.
//
// This is the composition root — every New* call in the codebase happens
// here or in main. Handlers receive services, services receive repository
// interfaces, and nothing reaches around its layer.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/spacetime/internal/auth"
	"github.com/sakif/spacetime/internal/handler"
	"github.com/sakif/spacetime/internal/middleware"
	sqliteRepo "github.com/sakif/spacetime/internal/repository/sqlite"
	"github.com/sakif/spacetime/internal/service"
)

// Config holds everything the server needs, all sourced from the
// environment in main.
type Config struct {
	Port               int
	DBPath             string
	UploadDir          string
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown, after in-flight requests drain.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph and returns a ready Server.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes mounts middleware and routes.
//
//	POST   /api/auth/register    → code for token (public)
//	GET    /api/me               → current user (auth)
//	GET    /api/memories         → excerpts the caller may read (auth)
//	GET    /api/memories/{id}    → full record (auth, 401 if private+not owner)
//	POST   /api/memories         → create (auth)
//	PUT    /api/memories/{id}    → update (auth, owner only)
//	DELETE /api/memories/{id}    → delete (auth, owner only)
//	POST   /api/upload           → store a cover asset (auth)
//	GET    /uploads/*            → serve stored assets (public)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The API is consumed from a browser frontend on another origin;
	// tokens travel in the Authorization header (no cookies), so a
	// permissive CORS policy is safe here.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	github := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret)
	authSvc := service.NewAuthService(github, s.db, tokens, s.logger)
	memorySvc := service.NewMemoryService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, s.logger)
	memoryHandler := handler.NewMemoryHandler(memorySvc, s.logger)
	uploadHandler, err := handler.NewUploadHandler(s.config.UploadDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating upload handler: %w", err)
	}

	// Stored cover assets are public by URL. Visibility applies to the
	// memory record, not to the asset it links.
	fileServer := http.FileServer(http.Dir(s.config.UploadDir))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)

			r.Get("/memories", memoryHandler.HandleList)
			r.Get("/memories/{id}", memoryHandler.HandleGet)
			r.Post("/memories", memoryHandler.HandleCreate)
			r.Put("/memories/{id}", memoryHandler.HandleUpdate)
			r.Delete("/memories/{id}", memoryHandler.HandleDelete)

			r.Post("/upload", uploadHandler.HandleUpload)
		})
	})

	return nil
}

// Start runs the listener until SIGINT/SIGTERM, then drains in-flight
// requests (30s budget) and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
