// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "composition root" — the one place where the whole dependency
// graph is assembled:
//
//	config → sqlite.DB → PasswordService / TokenService / media.Storage
//	       → UserService → UserHandler → routes
//
// Each layer only receives what it needs: the service gets the repository
// INTERFACE (not the concrete sqlite.DB), the handler gets the service, the
// router gets the handler. Nothing outside this package wires anything.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rlbk/nodejs-backend/internal/auth"
	"github.com/rlbk/nodejs-backend/internal/config"
	"github.com/rlbk/nodejs-backend/internal/handler"
	"github.com/rlbk/nodejs-backend/internal/media"
	"github.com/rlbk/nodejs-backend/internal/middleware"
	sqliteRepo "github.com/rlbk/nodejs-backend/internal/repository/sqlite"
	"github.com/rlbk/nodejs-backend/internal/service"
)

// Server owns the router, the database connection, and the configuration.
// The DB is closed during graceful shutdown, after in-flight requests drain.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency graph and returns a ready-to-start
// Server.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo to avoid confusion with the
// sqlite driver package itself.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires middleware, services, and the route table.
//
// ROUTE STRUCTURE:
//
//	POST  /api/v1/users/register        → create account (multipart)
//	POST  /api/v1/users/login           → start session, set cookies
//	POST  /api/v1/users/refresh-token   → rotate tokens
//	POST  /api/v1/users/logout          → end session        [auth]
//	POST  /api/v1/users/change-password → re-digest password [auth]
//	GET   /api/v1/users/current-user    → sanitized record   [auth]
//	PATCH /api/v1/users/avatar          → replace avatar     [auth]
//	PATCH /api/v1/users/cover-image     → replace cover      [auth]
//
// MIDDLEWARE ORDER MATTERS — RequestID and RealIP first (so the logger sees
// them), then Recoverer (panics become 500s, not crashes), then our logger.
// RequireAuth wraps only the protected sub-tree.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords, err := auth.NewPasswordService(s.cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	tokens, err := auth.NewTokenService(
		s.cfg.Token.AccessSecret,
		s.cfg.Token.RefreshSecret,
		s.cfg.Token.AccessExpiry,
		s.cfg.Token.RefreshExpiry,
	)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	mediaStore, err := media.New(s.cfg.Media)
	if err != nil {
		return fmt.Errorf("creating media storage: %w", err)
	}

	userService := service.NewUserService(s.db, tokens, passwords, mediaStore, s.logger)
	userHandler := handler.NewUserHandler(userService, s.cfg.Upload.TempDir, s.cfg.Upload.MaxFileSize, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db)

	s.router.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)
		r.Post("/refresh-token", userHandler.HandleRefresh)

		// Protected routes — RequireAuth resolves the identity first.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", userHandler.HandleLogout)
			r.Post("/change-password", userHandler.HandleChangePassword)
			r.Get("/current-user", userHandler.HandleCurrentUser)
			r.Patch("/avatar", userHandler.HandleUpdateAvatar)
			r.Patch("/cover-image", userHandler.HandleUpdateCoverImage)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully:
//
//  1. stop accepting new connections
//  2. wait for in-flight requests (shutdownTimeout)
//  3. close the database (flushes the WAL, releases the file lock)
//
// The deferred db.Close runs even if something panics during shutdown.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.cfg.DB.Path),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Router exposes the assembled router for tests that want to drive the full
// HTTP stack with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}
