package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/daylog-app/daylog-api/api/swagger"
	"github.com/daylog-app/daylog-api/internal/handler"
	"github.com/daylog-app/daylog-api/internal/middleware"
	"github.com/daylog-app/daylog-api/internal/repository"
	"github.com/daylog-app/daylog-api/internal/service"
	"github.com/daylog-app/daylog-api/internal/token"
	"github.com/daylog-app/daylog-api/pkg/cache"
	"github.com/daylog-app/daylog-api/pkg/config"
	"github.com/daylog-app/daylog-api/pkg/database"
	"github.com/daylog-app/daylog-api/pkg/hash"
	"github.com/daylog-app/daylog-api/pkg/logger"
	corsmiddleware "github.com/daylog-app/daylog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/daylog-app/daylog-api/pkg/middleware/requestid"
)

// @title Daylog Auth API
// @version 0.1.0
// @description Authentication and session-token gateway
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	hasher := hash.NewArgon2()
	codec := token.NewCodec(cfg.JWT)
	metrics := service.NewMetricsService()

	var limiter *service.LoginLimiter
	if cfg.RateLimit.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, login throttling disabled", "error", err)
		} else {
			defer redisClient.Close()
			limiter = service.NewLoginLimiter(redisClient, cfg.RateLimit)
		}
	}

	var audit *service.AuditService
	if cfg.Audit.Enabled {
		audit = service.NewAuditService(auditRepo, logr, cfg.Audit)
		audit.Start(context.Background())
		defer audit.Stop()
	}

	authService := service.NewAuthService(userRepo, refreshRepo, hasher, codec, nil, logr).
		WithMetrics(metrics).
		WithLoginLimiter(limiter).
		WithAudit(audit)
	userService := service.NewUserService(userRepo, hasher, nil, logr)

	secureCookie := cfg.Env == config.EnvProduction
	authHandler := handler.NewAuthHandler(authService, secureCookie)
	userHandler := handler.NewUserHandler(userService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		user := api.Group("/user")
		user.POST("", userHandler.Register)
		user.POST("/login", authHandler.Login)
		user.POST("/refresh", authHandler.Refresh)
		user.POST("/logout", authHandler.Logout)

		guarded := user.Group("")
		guarded.Use(middleware.JWT(codec, metrics))
		guarded.GET("/me", authHandler.Me)
		guarded.GET("/:id/profile", userHandler.GetProfile)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
