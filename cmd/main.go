package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"trxbetbot/internal/auth"
	"trxbetbot/internal/blockchain"
	"trxbetbot/internal/config"
	"trxbetbot/internal/database"
	"trxbetbot/internal/handlers"
	"trxbetbot/internal/jobs"
	"trxbetbot/internal/logger"
	"trxbetbot/internal/repository"
	"trxbetbot/internal/services"
	"trxbetbot/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New("trxbetbot", cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		logg.Fatalw("failed to connect to database", "err", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		logg.Fatalw("failed to run migrations", "err", err)
	}

	// Load runtime settings (polling cadence, stake bounds, leverage table)
	settings, err := config.LoadSettings(cfg.App.SettingsPath)
	if err != nil {
		logg.Fatalw("failed to load settings", "err", err, "path", cfg.App.SettingsPath)
	}

	// Initialize the chain gateway
	tronClient := blockchain.NewTronClient(cfg.Tron.NodeURL, logg)

	// Initialize the notification channel
	var notifier services.Notifier
	if cfg.Telegram.BotToken != "" {
		tg, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.OperatorChatID, logg)
		if err != nil {
			logg.Fatalw("failed to initialize telegram bot", "err", err)
		}
		notifier = tg
	} else {
		logg.Warnw("no telegram bot token configured, notifications go to the log")
		notifier = telegram.NewLogNotifier(logg)
	}

	// Initialize repository and services
	repo := repository.NewLedgerRepository(database.GetDB())

	resolver := services.NewResolver(
		repo,
		tronClient,
		settings,
		notifier,
		cfg.Tron.HouseAddress,
		cfg.Tron.HousePrivateKey,
		logg,
	)

	poller := jobs.NewBalancePoller(tronClient, resolver, repo, settings, logg)

	betService := services.NewBetService(repo, tronClient, poller, settings, logg)

	recurring := jobs.NewRecurringScheduler(betService, notifier, settings, logg)

	autoBetService := services.NewAutoBetService(repo, recurring, settings, logg)

	// Re-arm persisted recurring bets after restart
	reloaded, err := autoBetService.ReloadAll(context.Background())
	if err != nil {
		logg.Fatalw("failed to reload recurring bets", "err", err)
	}
	logg.Infow("recurring bets reloaded", "count", reloaded)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.App.APISecret)
	betHandler := handlers.NewBetHandler(betService, repo)
	autoBetHandler := handlers.NewAutoBetHandler(autoBetService)

	// Set up Gin router
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/token", authHandler.IssueToken)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/bets", betHandler.PlaceBet)
		api.GET("/bets", betHandler.ListBets)
		api.GET("/bets/pending", betHandler.GetPendingBet)
		api.GET("/bets/quote", betHandler.GetQuote)

		api.POST("/autobet", autoBetHandler.Enable)
		api.DELETE("/autobet", autoBetHandler.Disable)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logg.Infow("server starting", "port", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatalw("failed to start server", "err", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Infow("shutting down")

	// Stop timers first so nothing new enters the pipeline
	recurring.Stop()
	poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logg.Fatalw("server forced to shutdown", "err", err)
	}

	logg.Infow("server exited")
}
