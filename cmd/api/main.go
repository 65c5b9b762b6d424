package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/data"
	"github.com/mafiacoder/backend/internal/execution"
	"github.com/mafiacoder/backend/internal/handler"
	"github.com/mafiacoder/backend/internal/infrastructure"
	"github.com/mafiacoder/backend/internal/middleware"
	"github.com/mafiacoder/backend/internal/repository"
	"github.com/mafiacoder/backend/internal/service"
)

func main() {
	config := infrastructure.LoadConfig()

	logger, err := infrastructure.NewLogger(config.Server.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.SyncLogger(logger)

	logger.Info("Starting MafiaCoder API",
		zap.String("environment", config.Server.Environment),
		zap.Int("port", config.Server.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	telemetry, err := infrastructure.NewTelemetry(ctx, &config.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		telemetry.Shutdown(shutdownCtx)
	}()

	metrics, err := telemetry.CreateMetrics()
	if err != nil {
		logger.Error("Failed to create metrics", zap.Error(err))
		os.Exit(1)
	}

	// Database
	database, err := infrastructure.NewDatabase(&config.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	// Seed the problem bank and the weekend contests
	seeder := data.NewSeeder(database.DB, logger)
	if err := seeder.SeedProblems(); err != nil {
		logger.Error("Failed to seed problems", zap.Error(err))
		os.Exit(1)
	}
	if err := seeder.SeedWeekendContests(); err != nil {
		logger.Error("Failed to seed weekend contests", zap.Error(err))
		os.Exit(1)
	}

	// Redis is optional; without it leaderboards are computed per request
	redisClient, err := infrastructure.NewRedisClient(&config.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, leaderboard caching disabled", zap.Error(err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			redisClient.Close()
		}
	}()

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	problemRepo := repository.NewProblemRepository(database.DB)
	contestRepo := repository.NewContestRepository(database.DB)
	submissionRepo := repository.NewSubmissionRepository(database.DB)

	// Remote code runner
	runner := execution.NewClient(config.Judge.PistonURL, config.Judge.RequestTimeout, logger)

	// Services
	leaderboardCache := service.NewLeaderboardCache(redisClient, config.Judge.LeaderboardTTL, logger)
	userService := service.NewUserService(userRepo, submissionRepo, &config.JWT, telemetry.Tracer, logger)
	problemService := service.NewProblemService(problemRepo, telemetry.Tracer, logger)
	contestService := service.NewContestService(contestRepo, problemRepo, leaderboardCache, telemetry.Tracer, logger)
	judgeService := service.NewJudgeService(
		submissionRepo, problemRepo, userRepo, contestRepo,
		runner, leaderboardCache, &config.Judge, metrics, telemetry.Tracer, logger,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService)
	problemHandler := handler.NewProblemHandler(problemService)
	contestHandler := handler.NewContestHandler(contestService)
	submissionHandler := handler.NewSubmissionHandler(judgeService, submissionRepo)
	executionHandler := handler.NewExecutionHandler(runner)

	if config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig()))
	router.Use(middleware.TracingMiddleware(telemetry.Tracer))
	router.Use(middleware.MetricsMiddleware(metrics))

	router.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": config.Telemetry.ServiceVersion,
		})
	})

	// Metrics endpoint for Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Public reads
		api.GET("/problems", problemHandler.ListProblems)
		api.GET("/problems/:slug", problemHandler.GetProblem)
		api.GET("/contests", contestHandler.ListContests)
		api.GET("/contests/:id", contestHandler.GetContest)
		api.GET("/contests/:id/leaderboard", contestHandler.GetLeaderboard)
		api.GET("/leaderboard", userHandler.GetGlobalLeaderboard)

		api.GET("/execute/languages", executionHandler.Languages)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(userService))
		{
			// Raw execution for the editor's run button
			protected.POST("/execute", executionHandler.Execute)

			protected.POST("/problems", problemHandler.CreateProblem)
			protected.POST("/problems/:slug/testcases", problemHandler.AppendTestCases)

			protected.POST("/contests", contestHandler.CreateContest)
			protected.POST("/contests/:id/register", contestHandler.Register)

			protected.POST("/submissions", submissionHandler.Submit)
			protected.GET("/submissions", submissionHandler.ListMySubmissions)
			protected.GET("/submissions/:id", submissionHandler.GetSubmission)

			users := protected.Group("/users")
			{
				users.GET("/me", userHandler.GetCurrentUser)
				users.GET("/me/progress", userHandler.GetUserProgress)
			}
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server starting",
			zap.String("address", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
