// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects the store, the generation
// gateway, the mailer and the services to handlers, and decides which
// middleware runs on which routes.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → sqlite.DB, TxManager        (record store, unit of work)
//	  → generation.Gateway          (text, transcription, speech)
//	  → mail.Mailer                 (log, smtp or redis transport)
//	  → storage.Local               (staged uploads)
//	  → knowledge.Base              (archive, documents, demo script)
//	  → assembler.Assembler, search.Service
//	  → service.* → handler.*
//
// This is the composition root: every dependency is built here and nowhere
// else. Tests call NewWithDeps to swap the outbound collaborators (generator,
// transcriber, speaker, mailer) for fakes while keeping everything else real.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/execmind/internal/assembler"
	"github.com/sakif/execmind/internal/auth"
	"github.com/sakif/execmind/internal/config"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/handler"
	"github.com/sakif/execmind/internal/knowledge"
	"github.com/sakif/execmind/internal/mail"
	"github.com/sakif/execmind/internal/middleware"
	sqliteRepo "github.com/sakif/execmind/internal/repository/sqlite"
	"github.com/sakif/execmind/internal/search"
	"github.com/sakif/execmind/internal/service"
	"github.com/sakif/execmind/internal/storage"
)

// staleUploadAge is how old a staged upload must be before the startup sweep
// removes it.
const staleUploadAge = time.Hour

// Deps are the outbound collaborators. Everything else the server builds
// itself from config.
type Deps struct {
	Generator   generation.Generator
	Transcriber service.Transcriber
	Speaker     service.Speaker
	Mailer      mail.Mailer
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and, for the redis mail
// transport, a Redis client. Both are released by Close, which Start calls
// after the HTTP server has drained.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	uploads *storage.Local
	closers []io.Closer
}

// New builds the server with the real generation gateway and mailer.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	text, audio, err := generation.NewProviders(cfg.AI)
	if err != nil {
		return nil, err
	}
	gateway := generation.NewGateway(text, audio, cfg.AI.Timeout, logger)

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("creating mailer: %w", err)
	}
	// a queue nobody can reach would accept nothing, so fail before serving
	if q, ok := mailer.(*mail.QueueMailer); ok {
		if err := q.Ping(context.Background()); err != nil {
			q.Close()
			return nil, fmt.Errorf("mail queue unreachable: %w", err)
		}
	}

	s, err := NewWithDeps(cfg, logger, Deps{
		Generator:   gateway,
		Transcriber: gateway,
		Speaker:     gateway,
		Mailer:      mailer,
	})
	if err != nil {
		if c, ok := mailer.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}

	// transcription removes staged files through the same store that wrote them
	gateway.SetRemover(s.uploads.Delete)
	if c, ok := mailer.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}

	s.logger.Info("generation provider configured",
		slog.String("provider", cfg.AI.Provider),
		slog.String("model", cfg.AI.Model),
		slog.Bool("api_key_set", cfg.AI.APIKey != ""),
	)
	return s, nil
}

// NewWithDeps builds the server around the given outbound collaborators.
func NewWithDeps(cfg *config.Config, logger *slog.Logger, deps Deps) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	kb, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	uploads := storage.NewLocal(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if n, err := uploads.Sweep(staleUploadAge, logger); err != nil {
		logger.Warn("upload sweep failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Info("removed stale uploads", slog.Int("count", n))
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		uploads: uploads,
	}
	s.setupRoutes(tokens, kb, deps)
	return s, nil
}

// Handler returns the root handler. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database and any transport connections.
func (s *Server) Close() error {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("failed to close resource", slog.String("error", err.Error()))
		}
	}
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                                  → API index (optional auth)
//	GET    /api/health                        → liveness
//	POST   /api/profile/register|login        → public
//	everything else under /api                → bearer token required
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns the id every later log line carries
//  2. RealIP: extracts the client IP from proxy headers
//  3. Logger: logs each request with timing info
//  4. Recoverer: turns a panic into a 500 (inside Logger, so it is logged)
//  5. CORS: answers preflights before auth can reject them
func (s *Server) setupRoutes(tokens *auth.TokenService, kb *knowledge.Base, deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.CORS))

	// === Services ===
	tx := sqliteRepo.NewTxManager(s.db)
	asm := assembler.New(s.db, s.db, s.db)
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)

	profiles := service.NewProfileService(s.db, tokens, passwords, deps.Generator, deps.Mailer, s.logger)
	meetings := service.NewMeetingService(s.db, asm, deps.Generator, deps.Mailer, kb, nil, s.logger)
	ideas := service.NewIdeaService(s.db, asm, deps.Generator, deps.Transcriber, s.logger)
	insights := service.NewInsightService(s.db, asm, deps.Generator, tx, nil, s.logger)
	newsletters := service.NewNewsletterService(s.db, s.db, asm, deps.Generator, deps.Mailer, tx, nil, s.logger)

	// === Handlers ===
	system := handler.NewSystemHandler(time.Now())
	profileHandler := handler.NewProfileHandler(profiles, s.logger)
	meetingHandler := handler.NewMeetingHandler(meetings, s.logger)
	ideaHandler := handler.NewIdeaHandler(ideas, s.uploads, s.logger)
	newsletterHandler := handler.NewNewsletterHandler(newsletters, s.logger)
	insightHandler := handler.NewInsightHandler(insights, s.logger)
	searchHandler := handler.NewSearchHandler(search.NewService(s.db, s.logger), s.logger)
	assistantHandler := handler.NewAssistantHandler(
		service.NewAnalystService(kb, deps.Generator),
		service.NewAudioService(deps.Speaker),
		service.NewDemoService(kb),
		s.logger,
	)

	s.router.NotFound(system.HandleNotFound)
	s.router.MethodNotAllowed(system.HandleMethodNotAllowed)

	s.router.With(auth.OptionalAuth(tokens, s.db)).Get("/", system.HandleIndex)

	s.router.Route("/api", func(r chi.Router) {
		// === Public ===
		r.Get("/health", system.HandleHealth)
		r.Post("/profile/register", profileHandler.HandleRegister)
		r.Post("/profile/login", profileHandler.HandleLogin)

		// === Protected ===
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.db, s.logger))

			r.Get("/profile/me", profileHandler.HandleMe)
			r.Patch("/profile/me", profileHandler.HandleUpdate)
			r.Post("/profile/send-excerpt", profileHandler.HandleSendExcerpt)

			r.Route("/meetings", func(r chi.Router) {
				r.Get("/", meetingHandler.HandleList)
				r.Post("/summarize", meetingHandler.HandleSummarize)
				r.Get("/prep/{participantName}", meetingHandler.HandlePrep)
				r.Post("/ask", meetingHandler.HandleAsk)
				r.Post("/quick-capture", meetingHandler.HandleQuickCapture)
				r.Get("/archive", meetingHandler.HandleArchive)
			})

			r.Route("/ideas", func(r chi.Router) {
				r.Get("/", ideaHandler.HandleList)
				r.Post("/", ideaHandler.HandleCreate)
				r.Post("/voice", ideaHandler.HandleVoice)
				r.Post("/synthesize", ideaHandler.HandleSynthesize)
			})

			r.Route("/newsletters", func(r chi.Router) {
				r.Get("/", newsletterHandler.HandleList)
				r.Post("/generate", newsletterHandler.HandleGenerate)
				r.Get("/{id}", newsletterHandler.HandleGet)
				r.Patch("/{id}", newsletterHandler.HandleUpdate)
				r.Post("/{id}/send", newsletterHandler.HandleSend)
			})

			r.Route("/insights", func(r chi.Router) {
				r.Get("/", insightHandler.HandleList)
				r.Post("/generate", insightHandler.HandleGenerate)
			})

			r.Get("/search", searchHandler.HandleSearch)
			r.Post("/analyst/query", assistantHandler.HandleAnalyst)
			r.Post("/audio/speak", assistantHandler.HandleSpeak)
			r.Post("/demo/chat", assistantHandler.HandleDemo)
		})
	})
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait up to ShutdownTimeout for in-flight requests
//  3. Close the database (flushes WAL, releases the file lock) and the
//     mail transport
func (s *Server) Start() error {
	defer s.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := s.db.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port)),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.Database.Path),
			slog.String("mail_transport", s.config.Mail.Transport),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
