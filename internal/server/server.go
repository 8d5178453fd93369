// Package server is the composition root: it wires the database, services,
// handlers and middleware into one chi router and owns the process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/learnloop/internal/auth"
	"github.com/sakif/learnloop/internal/genai"
	"github.com/sakif/learnloop/internal/handler"
	"github.com/sakif/learnloop/internal/middleware"
	sqliteRepo "github.com/sakif/learnloop/internal/repository/sqlite"
	"github.com/sakif/learnloop/internal/service"
	"github.com/sakif/learnloop/internal/transcript"
	"github.com/sakif/learnloop/internal/youtube"
)

// Config holds everything the server needs, read from the environment by
// cmd/server. JWTSecret is mandatory; the external API keys are not: a
// missing key leaves the server running and the affected operation reporting
// service_unavailable.
type Config struct {
	Port            int
	DBPath          string
	JWTSecret       string
	YouTubeAPIKey   string
	GoogleAPIKey    string // Gemini generation key
	IdentityBaseURL string
	CORSOrigins     []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and assembles the full dependency graph.
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

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The frontend lives on another origin and sends the session cookie, so
	// credentialed CORS with explicit origins.
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	minter, err := auth.NewTokenMinter(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token minter: %w", err)
	}

	sessions := auth.NewSessionStore(s.db, s.db, minter, s.logger)
	vault := auth.NewPasswordVault()
	identity := auth.NewIdentityClient(s.config.IdentityBaseURL)
	google := auth.NewGoogleProvider(s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleCallbackURL)

	ranker := youtube.NewRanker(youtube.NewClient(s.config.YouTubeAPIKey))
	aggregator := transcript.NewAggregator(transcript.StubFetcher{}, s.logger)
	generator := genai.NewClient(s.config.GoogleAPIKey)
	lessonSynth := genai.NewLessonSynthesizer(generator, s.logger)
	quizSynth := genai.NewQuizSynthesizer(generator, s.logger)

	authService := service.NewAuthService(s.db, vault, sessions, identity, google, s.logger)
	courseService := service.NewCourseService(ranker, aggregator, lessonSynth, quizSynth, s.db, s.db, s.db, s.logger)
	progressService := service.NewProgressService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, google, s.logger)
	courseHandler := handler.NewCourseHandler(courseService, s.logger)
	progressHandler := handler.NewProgressHandler(progressService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"message":"learnloop api is running"}`))
		})

		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/auth/session-data", authHandler.HandleSessionData)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(sessions))

			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Get("/auth/me", authHandler.HandleMe)

			r.Post("/create-course", courseHandler.HandleCreateCourse)
			r.Get("/quiz/{lessonID}", courseHandler.HandleQuiz)
			r.Get("/my-courses", courseHandler.HandleMyCourses)
			r.Get("/dashboard", courseHandler.HandleDashboard)

			r.Post("/progress", progressHandler.HandleSave)
			r.Get("/progress", progressHandler.HandleList)
		})
	})

	if google.Configured() {
		s.router.Get("/auth/google/login", authHandler.HandleGoogleLogin)
		s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
	} else {
		s.logger.Warn("Google OAuth credentials not set, /auth/google routes disabled")
	}

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database last.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// Course generation waits on search plus transcript plus the oracle.
		WriteTimeout: 120 * time.Second,
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
		if !errors.Is(err, http.ErrServerClosed) {
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
