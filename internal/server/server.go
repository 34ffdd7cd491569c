package server

import (
	"fmt"
	"net/http"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/database"
	custommiddleware "stockroom/internal/middleware"
	"stockroom/internal/pkg/clock"
	"stockroom/internal/repository"
	"stockroom/internal/service"
	"stockroom/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Roles allowed to work with product forms
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

const (
	draftKeyPrefix     = "product_form"
	rateLimitKeyPrefix = "rate_limit"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", healthHandler(db, redisClient))

	clk := clock.NewRealClock()

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	draftStore := repository.NewRedisDraftStore(redisClient, cfg.Form.DraftTTL, draftKeyPrefix)

	// Initialize services
	categoryService := service.NewCategoryService(categoryRepo, clk)
	productService := service.NewProductService(productRepo, categoryRepo, clk)

	// Initialize handlers
	formHandler := transport.NewFormHandler(draftStore, categoryService, productService, clk, cfg.Form.Location, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	productHandler := transport.NewProductHandler(productService, logger)

	submitLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         rateLimitKeyPrefix,
	}, logger)

	router.Route("/api", func(r chi.Router) {
		r.Use(custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger))
		r.Use(custommiddleware.RequireRole([]string{RoleAdmin, RoleStaff}, logger))

		formHandler.RegisterRoutes(r, submitLimiter)
		categoryHandler.RegisterRoutes(r)
		productHandler.RegisterRoutes(r)
	})

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
}

func healthHandler(db *database.Service, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok"}

		dbHealth := db.Health(r.Context())
		body["database"] = dbHealth
		if dbHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}

		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["redis"] = "down"
		} else {
			body["redis"] = "up"
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
