package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/consumers"
	"github.com/chemtrack/chemtrack-backend/internal/stock/events"
	"github.com/chemtrack/chemtrack-backend/internal/stock/handler"
	"github.com/chemtrack/chemtrack-backend/internal/stock/repository"
	"github.com/chemtrack/chemtrack-backend/internal/stock/service"
	"github.com/chemtrack/chemtrack-backend/pkg/config"
	"github.com/chemtrack/chemtrack-backend/pkg/database"
	"github.com/chemtrack/chemtrack-backend/pkg/httputil"
	"github.com/chemtrack/chemtrack-backend/pkg/i18n"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/chemtrack/chemtrack-backend/pkg/messaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

const serviceName = "stock-service"

func main() {
	migrate := flag.Bool("migrate", false, "apply the stock schema before serving")
	flag.Parse()

	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Stock Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
		log.Info().Msg("stock schema applied")
	}

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
		log.Fatal().Err(err).Msg("failed to declare dead letter queue")
	}

	// Initialize event publisher
	publisher, err := events.NewStockEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	cascadeRepo := repository.NewCascadeRepository(db)

	// Initialize services
	stockService := service.NewStockService(productRepo, batchRepo, referenceRepo, cascadeRepo, publisher, cfg.Stock, log)
	productService := service.NewProductService(productRepo, batchRepo, log)

	// Initialize handlers
	handlers := &handler.Handlers{
		Products: handler.NewProductHandler(productService, log),
		Batches:  handler.NewBatchHandler(productService, stockService, log),
		Stock:    handler.NewStockHandler(stockService, log),
		Deletion: handler.NewDeletionHandler(stockService, log),
	}

	// Start inventory event consumer
	txConsumer, err := consumers.NewTransactionEventConsumer(rmq, stockService, publisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inventory event consumer")
	}
	if err := txConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start inventory event consumer")
	}

	// Start expiry scheduler
	var scheduler *service.ExpiryScheduler
	if cfg.Stock.ExpiryScanEnabled {
		scanner := service.NewExpiryScanner(batchRepo, publisher, log)
		scheduler = service.NewExpiryScheduler(scanner, cfg.Stock.ExpiryScanInterval, log)
		scheduler.Start(ctx)
	}

	// Create router
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Server.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.Server.IsProduction(),
	})

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(secureMiddleware.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.Server.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	}
	r.Use(i18n.Middleware)
	r.Use(httputil.UserContext)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	handlers.Mount(r, cfg.Server.DeleteRateLimitPerMinute)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	if scheduler != nil {
		scheduler.Stop()
	}

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
