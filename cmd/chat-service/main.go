package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/internal/chat/delivery/consumer"
	delivery "golang-market-chat/internal/chat/delivery/http"
	_ "golang-market-chat/internal/chat/docs"
	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/internal/chat/service"
	"golang-market-chat/internal/chat/strategy"
	"golang-market-chat/pkg/logger"
	"golang-market-chat/pkg/postgres"
	"golang-market-chat/pkg/redis"
	"golang-market-chat/pkg/telegram"
	"golang-market-chat/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the market chat service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logOpts []logger.Option
	if cfg.Logger.OutputFile != "" {
		logOpts = append(logOpts, logger.WithOutputFile(cfg.Logger.OutputFile))
	}
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding, logOpts...)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Market Chat Service", logger.Field("name", cfg.App.Name), logger.Field("version", cfg.App.Version))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		appLogger.Fatal("Failed to get database handle", logger.ErrorField(err))
	}
	defer sqlDB.Close()

	healthDeps := map[string]delivery.Pinger{"postgres": delivery.PingerFunc(sqlDB.PingContext)}

	// Initialize Redis. Without it the quota gate, the distributed quote tier and
	// queued persistence are disabled.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Warn("Redis unavailable, running without rate limiting and distributed cache", logger.ErrorField(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			healthDeps["redis"] = delivery.PingerFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		}
	}

	// Initialize repositories
	historyRepo := repository.NewChatHistoryRepository(db.DB)
	finnhubRepo := repository.NewFinnhubRepository(cfg, appLogger)
	yahooFinanceRepo := repository.NewYahooFinanceRepository(cfg, appLogger)
	coinGeckoRepo := repository.NewCoinGeckoRepository(cfg, appLogger)
	pageContentRepo := repository.NewPageContentRepository(cfg, appLogger)

	var authRepo repository.AuthRepository
	if cfg.Auth.BaseURL != "" {
		authRepo = repository.NewAuthRepository(cfg, appLogger)
	}

	var (
		quoteCacheRepo repository.QuoteCacheRepository
		limiter        service.RateLimiter
		queueRepo      repository.ExchangeQueueRepository
	)
	if redisClient != nil {
		quoteCacheRepo = repository.NewQuoteCacheRepository(redisClient.Client)
		limiter = service.NewRateLimiter(repository.NewRateLimitRepository(redisClient.Client), cfg.Chat.RateLimitWindow, cfg.Chat.RateLimitMaxRequests, appLogger)
		queueRepo = repository.NewExchangeQueueRepository(redisClient.Client, cfg.Redis.StreamMaxLen)
	}

	// Initialize completion provider
	var completionRepo repository.CompletionRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
		}
		completionRepo = repository.NewGeminiCompletionRepository(cfg, appLogger, genAiClient)
	case "openai":
		completionRepo = repository.NewOpenAICompletionRepository(cfg, appLogger)
	default:
		appLogger.Fatal("Invalid AI provider specified in config", logger.StringField("provider", cfg.AI.Provider))
	}
	if cfg.CompletionAPIKey() == "" {
		appLogger.Warn("Completion provider API key is not configured, chat requests will fail", logger.StringField("provider", cfg.AI.Provider))
	}

	var notifier telegram.Notifier = telegram.NewNopNotifier()
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize strategies, in fallback order
	strategies := []strategy.QuoteProviderStrategy{
		strategy.NewCryptoQuoteStrategy(coinGeckoRepo),
		strategy.NewFinnhubQuoteStrategy(finnhubRepo),
		strategy.NewYahooQuoteStrategy(yahooFinanceRepo),
	}
	if cfg.Polygon.APIKey != "" {
		strategies = append(strategies, strategy.NewPolygonQuoteStrategy(repository.NewPolygonRepository(cfg, appLogger)))
	}

	// Initialize services
	resolver := service.NewQuoteResolver(
		service.QuoteResolverConfig{
			TTL:                  cfg.Quote.CacheTTL,
			ProviderTimeout:      cfg.Quote.ProviderTimeout,
			MaxConcurrentSymbols: cfg.Quote.MaxConcurrentSymbols,
		},
		service.NewLocalQuoteCache(cfg.Quote.CacheTTL, cfg.Quote.CacheCleanupInterval),
		quoteCacheRepo,
		strategies,
		appLogger,
	)

	inlineSink := service.NewInlinePersistenceSink(historyRepo, cfg.Persistence.Timeout, appLogger)
	sink := inlineSink
	var redisConsumer *consumer.RedisConsumer
	if cfg.Persistence.Mode == config.PersistenceModeQueued {
		if queueRepo == nil {
			appLogger.Warn("Queued persistence requires Redis, falling back to inline writes")
		} else {
			sink = service.NewQueuedPersistenceSink(queueRepo, cfg.Persistence.Timeout, appLogger)
			redisConsumer = consumer.NewRedisConsumer(queueRepo, inlineSink, cfg.Persistence.ConsumerBlock, cfg.Persistence.Timeout, appLogger)
		}
	}

	chatSvc := service.NewChatService(
		cfg,
		limiter,
		resolver,
		pageContentRepo,
		service.NewStreamRelay(completionRepo, appLogger),
		sink,
		historyRepo,
		service.NewAlerter(notifier, time.Minute, appLogger),
		appLogger,
	)
	identity := service.NewIdentityResolver(authRepo, appLogger)

	// Start background workers
	if redisConsumer != nil {
		if err := redisConsumer.Start(ctx); err != nil {
			appLogger.Fatal("Failed to start persistence consumer", logger.ErrorField(err))
		}
		defer redisConsumer.Stop()
	}

	warmer := service.NewCacheWarmer(resolver, cfg.Quote.WarmSymbols, cfg.Quote.WarmSchedule, appLogger)
	utils.GoSafe(func() {
		if err := warmer.Start(ctx); err != nil {
			appLogger.Error("Quote cache warmer failed to start", logger.ErrorField(err))
		}
	})

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	delivery.Register(e, appLogger)

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")
	chatHandler := delivery.NewChatHandler(chatSvc, identity, appLogger)
	chatHandler.RegisterRoutes(apiV1.Group("/chat"))

	quoteHandler := delivery.NewQuoteHandler(resolver, appLogger)
	quoteHandler.RegisterRoutes(apiV1.Group("/quotes"))

	e.GET("/healthz", delivery.NewHealthHandler(healthDeps, appLogger).Health)
	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Streams in flight keep running until the upstream finishes or the timeout hits
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Chat.UpstreamTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Market Chat API
// @version 1.0
// @description Streams market-aware chat answers enriched with live quotes.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "chat-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-chat.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing chat-service CLI: %s\n", err)
		os.Exit(1)
	}
}
