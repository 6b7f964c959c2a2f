package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/warbler-social/server/config"
	"github.com/warbler-social/server/internal/db"
	"github.com/warbler-social/server/internal/events"
	"github.com/warbler-social/server/internal/handlers"
	"github.com/warbler-social/server/internal/services"
	"github.com/warbler-social/server/internal/session"
	"github.com/warbler-social/server/internal/storage"
	"github.com/warbler-social/server/internal/store"
)

// Server wraps the HTTP server, router and shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *events.Bus
	logger     *logrus.Logger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus, err := newBus(ctx, cfg, logger)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	avatars, err := newAvatars(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		_ = bus.Close()
		return nil, err
	}
	if err := avatars.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		_ = bus.Close()
		return nil, fmt.Errorf("ensure avatar bucket: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	messageRepo := store.NewMessageRepository(dbConn)
	followRepo := store.NewFollowRepository(dbConn)
	likeRepo := store.NewLikeRepository(dbConn)

	userService := services.NewUserService(userRepo, bus)
	followService := services.NewFollowService(followRepo, userRepo, bus)
	messageService := services.NewMessageService(messageRepo, likeRepo, bus)

	sessions := session.NewManager(cfg.SessionSecret)

	web := handlers.NewWeb(userService, followService, messageService, sessions, avatars, logger)
	api := handlers.NewAPI(userService, messageService, cfg.JWTSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.WebRouter(router, web)
	router.Route("/api", func(r chi.Router) {
		handlers.APIRouter(r, api)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		logger:     logger,
	}, nil
}

func newBus(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*events.Bus, error) {
	switch cfg.Broker.Backend {
	case "rabbitmq":
		backend, err := events.NewRabbitMQBackend(cfg.Broker.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq backend: %w", err)
		}
		return events.New(backend, logger), nil
	case "pubsub":
		backend, err := events.NewPubSubBackend(ctx, cfg.Broker.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub backend: %w", err)
		}
		return events.New(backend, logger), nil
	case "", "none":
		return events.New(nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown broker backend %q", cfg.Broker.Backend)
	}
}

func newAvatars(ctx context.Context, cfg config.Config) (*storage.Avatars, error) {
	switch cfg.Storage.Backend {
	case "minio":
		backend, err := storage.NewMinioBackend(cfg.Storage.Minio)
		if err != nil {
			return nil, fmt.Errorf("minio backend: %w", err)
		}
		return storage.NewAvatars(backend), nil
	case "gcs":
		backend, err := storage.NewGCSBackend(ctx, cfg.Storage.GCS)
		if err != nil {
			return nil, fmt.Errorf("gcs backend: %w", err)
		}
		return storage.NewAvatars(backend), nil
	case "", "none":
		return storage.NewAvatars(nil), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
