package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nyumbaconnect/rental-api/internal/api/handler"
	"github.com/nyumbaconnect/rental-api/internal/api/middleware"
	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/service"
	mongodb "github.com/nyumbaconnect/rental-api/internal/infrastructure/db/mongo"
	redisdb "github.com/nyumbaconnect/rental-api/internal/infrastructure/db/redis"
	"github.com/nyumbaconnect/rental-api/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("rental"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	propertyRepo := mongodb.NewPropertyRepository(db)
	transactionRepo := mongodb.NewTransactionRepository(db)
	unlockGuard := redisdb.NewUnlockGuard(rdb)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, log)
	propertyService := service.NewPropertyService(propertyRepo, userRepo, log)
	unlockService := service.NewUnlockService(propertyRepo, userRepo, transactionRepo, unlockGuard, cfg.UnlockFee, log)

	authHandler := handler.NewAuthHandler(authService)
	propertyHandler := handler.NewPropertyHandler(propertyService, unlockService)

	requireAuth := middleware.Auth(cfg.JWTSecret, userRepo)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret, userRepo)
	ownerOnly := middleware.RequireRole(domain.RoleLandlord, domain.RoleAgent)
	tenantOnly := middleware.RequireRole(domain.RoleTenant)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/profile", authHandler.Profile, requireAuth)
	e.PUT("/auth/profile", authHandler.UpdateProfile, requireAuth)

	// --- Property routes ---
	properties := e.Group("/properties")
	properties.GET("", propertyHandler.List)
	properties.GET("/favorites", propertyHandler.ListFavorites, requireAuth, tenantOnly)
	properties.GET("/my-properties", propertyHandler.ListMine, requireAuth, ownerOnly)
	properties.GET("/:id", propertyHandler.Get, optionalAuth)
	properties.POST("", propertyHandler.Create, requireAuth, ownerOnly)
	properties.PUT("/:id", propertyHandler.Update, requireAuth, ownerOnly)
	properties.DELETE("/:id", propertyHandler.Delete, requireAuth, ownerOnly)

	properties.POST("/:id/images", propertyHandler.AddImage, requireAuth, ownerOnly)
	properties.PATCH("/:id/images/:imageId/primary", propertyHandler.SetPrimaryImage, requireAuth, ownerOnly)
	properties.DELETE("/:id/images/:imageId", propertyHandler.RemoveImage, requireAuth, ownerOnly)

	properties.POST("/:id/favorite", propertyHandler.AddFavorite, requireAuth, tenantOnly)
	properties.DELETE("/:id/favorite", propertyHandler.RemoveFavorite, requireAuth, tenantOnly)

	properties.POST("/:id/unlock", propertyHandler.Unlock, requireAuth, tenantOnly)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
