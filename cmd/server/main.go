package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"flashsale-system/internal/config"
	"flashsale-system/internal/database"
	"flashsale-system/internal/handlers"
	"flashsale-system/internal/kafka"
	"flashsale-system/internal/logger"
	"flashsale-system/internal/models"
	"flashsale-system/internal/redis"
	"flashsale-system/internal/services"
)

// Factory functions for external dependencies, swappable in tests.
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application aggregates the assembled dependencies.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting flash sale system server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication creates every dependency (swappable in tests).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	flashSaleService := services.NewFlashSaleService(db, redisClient, &cfg.Cache, log)
	productService := services.NewFlashSaleProductService(db, flashSaleService, redisClient, &cfg.Cache, log)
	purchaseService := services.NewPurchaseService(db, redisClient, log)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	flashSaleHandler := handlers.NewFlashSaleHandler(flashSaleService, producer, log)
	productHandler := handlers.NewFlashSaleProductHandler(productService, log)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, producer, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit)

	registerEventHandlers(consumer, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(flashSaleHandler, productHandler, purchaseHandler, healthHandler, rateLimitHandler, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// setupRoutes wires the HTTP routes.
func setupRoutes(flashSaleHandler *handlers.FlashSaleHandler, productHandler *handlers.FlashSaleProductHandler, purchaseHandler *handlers.PurchaseHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Flash sale campaigns
	mux.HandleFunc("/api/flash-sales", applyAPI(handleFlashSalesRoute(flashSaleHandler)))
	mux.HandleFunc("/api/flash-sales/active", applyAPI(flashSaleHandler.ListActive))
	mux.HandleFunc("/api/flash-sales/", applyAPI(handleFlashSaleRoute(flashSaleHandler, productHandler, purchaseHandler)))

	// Flash sale line items
	mux.HandleFunc("/api/flash-sale-products/", applyAPI(handleFlashSaleProductRoute(productHandler, purchaseHandler)))

	// Storefront product lookup
	mux.HandleFunc("/api/products/", applyAPI(handleProductRoute(productHandler)))

	// Purchases
	mux.HandleFunc("/api/purchases", applyAPI(handlePurchasesRoute(purchaseHandler)))
	mux.HandleFunc("/api/purchases/", applyAPI(handlePurchaseRoute(purchaseHandler)))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(rateLimitHandler.Status))

	return mux
}

// handleFlashSalesRoute dispatches the campaign collection routes.
func handleFlashSalesRoute(handler *handlers.FlashSaleHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.List(w, r)
		case http.MethodPost:
			handler.Create(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleFlashSaleRoute dispatches the per-campaign routes.
func handleFlashSaleRoute(handler *handlers.FlashSaleHandler, productHandler *handlers.FlashSaleProductHandler, purchaseHandler *handlers.PurchaseHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status"):
			if r.Method == http.MethodPut {
				handler.SetStatus(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case strings.HasSuffix(path, "/products/bulk"):
			if r.Method == http.MethodPost {
				productHandler.AddMany(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case strings.HasSuffix(path, "/products/replace"):
			if r.Method == http.MethodPut {
				productHandler.Replace(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case strings.HasSuffix(path, "/products"):
			switch r.Method {
			case http.MethodGet:
				productHandler.ListProducts(w, r)
			case http.MethodPost:
				productHandler.Add(w, r)
			case http.MethodDelete:
				productHandler.RemoveAll(w, r)
			default:
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case strings.HasSuffix(path, "/purchase-stats"):
			if r.Method == http.MethodGet {
				purchaseHandler.Stats(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case strings.HasSuffix(path, "/stats"):
			if r.Method == http.MethodGet {
				productHandler.Stats(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		default:
			switch r.Method {
			case http.MethodGet:
				handler.Get(w, r)
			case http.MethodPut:
				handler.Update(w, r)
			case http.MethodDelete:
				handler.Delete(w, r)
			default:
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		}
	}
}

// handleFlashSaleProductRoute dispatches the per-line-item routes.
func handleFlashSaleProductRoute(handler *handlers.FlashSaleProductHandler, purchaseHandler *handlers.PurchaseHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/sold"):
			if r.Method == http.MethodPost {
				handler.IncrementSold(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case strings.HasSuffix(path, "/can-purchase"):
			if r.Method == http.MethodPost {
				purchaseHandler.CanPurchase(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		default:
			switch r.Method {
			case http.MethodPut:
				handler.Update(w, r)
			case http.MethodDelete:
				handler.Remove(w, r)
			default:
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		}
	}
}

// handleProductRoute dispatches the storefront eligibility lookup.
func handleProductRoute(handler *handlers.FlashSaleProductHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/flash-sale") {
			if r.Method == http.MethodGet {
				handler.CheckProduct(w, r)
				return
			}
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		writeErrorResponse(w, http.StatusNotFound, "Not found")
	}
}

// handlePurchasesRoute dispatches the purchase collection routes.
func handlePurchasesRoute(handler *handlers.PurchaseHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.History(w, r)
		case http.MethodPost:
			handler.Record(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handlePurchaseRoute dispatches the per-purchase routes.
func handlePurchaseRoute(handler *handlers.PurchaseHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			handler.Cancel(w, r)
			return
		}
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// registerEventHandlers registers the Kafka event handlers.
func registerEventHandlers(consumer *kafka.Consumer, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeFlashSaleCreated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing flash sale created event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypeFlashSaleStatusChanged, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing flash sale status changed event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypeFlashSaleDeleted, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing flash sale deleted event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypePurchaseRecorded, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing purchase recorded event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypePurchaseCancelled, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing purchase cancelled event")
		return nil
	})
}

func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Success: false,
		Error:   message,
	})
}
