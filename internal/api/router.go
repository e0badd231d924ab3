package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	"github.com/taskhive/task-api/internal/api/handler"
	"github.com/taskhive/task-api/internal/api/middleware"
	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
	"github.com/taskhive/task-api/internal/core/service"
	mongodb "github.com/taskhive/task-api/internal/infrastructure/db/mongo"
	redisdb "github.com/taskhive/task-api/internal/infrastructure/db/redis"
)

// Options carries the runtime settings the router needs beyond its
// connection handles.
type Options struct {
	JWTSecret         string
	JWTTTL            time.Duration
	AdminBootstrapKey string
	CacheTTL          time.Duration
}

// NewRouter builds and returns the Echo instance with all routes
// registered. rdb may be nil; the task service then runs with a no-op
// cache and every list request hits the store.
func NewRouter(db *mongo.Database, rdb *redis.Client, opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.BodyLimit("100K"))
	e.Use(echoprometheus.NewMiddleware("taskapi"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	taskRepo := mongodb.NewTaskRepository(db)

	var cache ports.ListCache = ports.NoopListCache{}
	if rdb != nil {
		cache = redisdb.NewListCache(rdb, log)
	}

	tokenService := service.NewTokenService(opts.JWTSecret, opts.JWTTTL)
	authService := service.NewAuthService(userRepo, tokenService, opts.AdminBootstrapKey, log)
	taskService := service.NewTaskService(taskRepo, cache, opts.CacheTTL, log)
	statsService := service.NewStatsService(userRepo, taskRepo)

	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService)
	adminHandler := handler.NewAdminHandler(statsService)
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	authenticated := middleware.Auth(tokenService, userRepo)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Probes and metrics (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/api/health", healthHandler.Liveness)
	e.GET("/api/health/ready", readinessHandler.Readiness)

	// --- API v1 ---
	v1 := e.Group("/api/v1", echomiddleware.RateLimiter(
		echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(10),
			Burst:     30,
			ExpiresIn: 3 * time.Minute,
		}),
	))

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/register-admin", authHandler.RegisterAdmin)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, authenticated)

	tasks := v1.Group("/tasks", authenticated)
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)

	admin := v1.Group("/admin", authenticated, adminOnly)
	admin.GET("/stats", adminHandler.Stats)

	return e
}
