package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mealcycle/apiserver/config"
	"github.com/mealcycle/apiserver/internal/audit"
	"github.com/mealcycle/apiserver/internal/cache"
	"github.com/mealcycle/apiserver/internal/db"
	"github.com/mealcycle/apiserver/internal/handlers"
	"github.com/mealcycle/apiserver/internal/logging"
	"github.com/mealcycle/apiserver/internal/metrics"
	"github.com/mealcycle/apiserver/internal/mq"
	"github.com/mealcycle/apiserver/internal/services"
	"github.com/mealcycle/apiserver/internal/storage"
	"github.com/mealcycle/apiserver/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Server wraps the HTTP server, router, and the clients it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	redis      *redis.Client
	broker     *mq.MQ
	log        zerolog.Logger
}

// New constructs a fully wired Server. Redis, the broker, and object
// storage are optional; a missing backend disables the feature rather
// than failing startup.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	log := logging.New()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	metrics.RegisterDBPool(dbConn)

	redisClient, err := cache.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, menu cache disabled")
		redisClient = nil
	}
	var menuCache services.MenuCache
	if redisClient != nil {
		menuCache = cache.NewMenuCache(redisClient)
	}

	broker, err := mq.FromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("mq: %w", err)
	}

	images, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	if images != nil {
		if err := images.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("storage: %w", err)
		}
	}

	userRepo := store.NewUserRepository(dbConn)
	menuRepo := store.NewMenuRepository(dbConn)
	orderRepo := store.NewOrderRepository(dbConn)
	packRepo := store.NewPackRepository(dbConn)
	auditRepo := store.NewAuditRepository(dbConn)

	userService := services.NewUserService(userRepo)
	menuService := services.NewMenuService(menuRepo, menuCache)
	orderService := services.NewOrderService(orderRepo, menuRepo)
	packService := services.NewPackService(packRepo)

	recorder := audit.NewRecorder(auditRepo, broker, log)
	guard := handlers.NewGuard(recorder, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(log),
		metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz(dbConn))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(handlers.ParseSession(cfg.JWTSecret))

		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, userService, cfg.JWTSecret, log)
		})
		r.Route("/menus", func(r chi.Router) {
			handlers.MenuRouter(r, menuService, recorder, log)
		})
		r.Route("/orders", func(r chi.Router) {
			handlers.OrderRouter(r, orderService, recorder, log)
		})
		r.Route("/packs", func(r chi.Router) {
			handlers.PackRouter(r, packService, recorder, log)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/menus", func(r chi.Router) {
				handlers.AdminMenuRouter(r, menuService, images, guard, recorder, log)
			})
			r.Route("/orders", func(r chi.Router) {
				handlers.AdminOrderRouter(r, orderService, guard, recorder, log)
			})
			r.Route("/packs/templates", func(r chi.Router) {
				handlers.AdminPackRouter(r, packService, guard, recorder, log)
			})
			r.Route("/users", func(r chi.Router) {
				handlers.AdminUserRouter(r, userService, guard, recorder, log)
			})
			r.Route("/audit", func(r chi.Router) {
				handlers.AdminAuditRouter(r, auditRepo, guard, log)
			})
			r.Route("/system", func(r chi.Router) {
				handlers.AdminSystemRouter(r, dbConn, guard)
			})
		})
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
		redis:      redisClient,
		broker:     broker,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the owned clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
