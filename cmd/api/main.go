// @title UTI Assess API
// @version 1.0
// @description Urinary tract infection risk assessment with account and session history.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "uti-assess/cmd/api/docs"
	"uti-assess/internal/adapter"
	"uti-assess/internal/adapter/scorer"
	"uti-assess/internal/cache"
	"uti-assess/internal/config"
	"uti-assess/internal/database"
	"uti-assess/internal/domain"
	"uti-assess/internal/handler"
	"uti-assess/internal/logger"
	"uti-assess/internal/middleware"
	"uti-assess/internal/repository"
	"uti-assess/internal/service"
	"uti-assess/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logger.Get()
	defer func() { _ = logger.Sync() }()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	db, err := database.Open(startupCtx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(startupCtx, db, cfg.DB.Driver); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Without redis, local history and token revocations live in process memory
	// and are lost on restart.
	var cacheAdapter domain.Cache
	redisClient, err := cache.NewRedisClient(startupCtx, cfg.Redis)
	if err != nil {
		appLogger.Warn("Redis unavailable, falling back to in-process cache", zap.Error(err))
		cacheAdapter = adapter.NewMemoryCache()
	} else {
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
	}

	// Initialize repositories
	userRepository := repository.NewSQLXUserRepository(db)
	assessmentRepository := repository.NewAssessmentDatabaseAdapter(db)

	// Initialize services
	validator := validation.NewValidator()
	historyService := service.NewHistoryService(assessmentRepository, userRepository)
	localHistoryService := service.NewLocalHistoryService(cacheAdapter, cfg.History.LocalTTL)
	assessmentService := service.NewAssessmentService(validator, scorer.NewRuleScorer(), historyService, localHistoryService, cfg.History.SaveTimeout)

	authService, err := service.NewAuthService(userRepository, cacheAdapter, cfg, validator)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORS.AllowOrigins,
		AllowMethods:  "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization," + middleware.SessionHeader,
		ExposeHeaders: middleware.SessionHeader,
		MaxAge:        300,
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	handler.RegisterRoutes(app, handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserHandler(authService),
		Assessments: handler.NewAssessmentHandler(assessmentService, historyService, cacheAdapter),
		History:     handler.NewHistoryHandler(historyService, localHistoryService),
	}, authService, cfg.History.LocalTTL)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("db_driver", cfg.DB.Driver))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let background history saves finish before the pool closes.
	assessmentService.Wait()
	appLogger.Info("Server exited gracefully")
}
