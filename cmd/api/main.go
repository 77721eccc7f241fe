package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/cloudevents"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/idempotency"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/kafka"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/metrics"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/middleware"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/mongodb"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/outbox"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/resilience"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/tracing"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/api/handlers"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/application"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/domain"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/events"
	mongoRepo "github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/infrastructure/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
)

const serviceName = "pricing-service"

type instrumentedMongoClient interface {
	Database() *mongo.Database
	Close(context.Context) error
	HealthCheck(context.Context) error
	Breaker() *resilience.CircuitBreaker
}

type kafkaProducer interface {
	Close() error
	Breaker() *resilience.CircuitBreaker
}

type outboxPublisher interface {
	Start(context.Context) error
	Stop() error
}

type eventConsumer interface {
	Start(context.Context) error
	Close() error
}

type pricingRuleRepository interface {
	domain.PricingRuleRepository
	GetOutboxRepository() outbox.Repository
}

var newInstrumentedMongoClient = func(ctx context.Context, cfg *mongodb.Config, m *metrics.Metrics, logger *logging.Logger) (instrumentedMongoClient, error) {
	return mongodb.NewProductionClient(ctx, cfg, m, logger)
}

var newInstrumentedKafkaProducer = func(cfg *kafka.Config, m *metrics.Metrics, logger *logging.Logger) kafkaProducer {
	return kafka.NewProductionProducer(cfg, m, logger)
}

var newOutboxPublisher = func(repo outbox.Repository, producer kafkaProducer, logger *logging.Logger, m *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher {
	return outbox.NewPublisher(repo, producer.(outbox.EventPublisher), logger, m, cfg)
}

var newPricingRuleRepository = func(db *mongo.Database, eventFactory *cloudevents.EventFactory) pricingRuleRepository {
	return mongoRepo.NewPricingRuleRepository(db, eventFactory)
}

var newRuleSequenceRepository = func(db *mongo.Database) domain.RuleSequenceRepository {
	return mongoRepo.NewRuleSequenceRepository(db)
}

var newProcessedMessageRepository = func(db *mongo.Database) idempotency.MessageRepository {
	return idempotency.NewMongoMessageRepository(db)
}

var newShipmentConsumer = func(cfg *kafka.Config, service *application.PricingService, dedup *idempotency.ConsumerConfig, m *metrics.Metrics, logger *logging.Logger, breakers *resilience.CircuitBreakerRegistry) eventConsumer {
	consumer := kafka.NewProductionConsumer(cfg, m, logger)
	breakers.Register(consumer.Breaker())
	return events.NewShipmentConsumer(consumer, service, dedup, logger)
}

var newPricingService = application.NewPricingService

var newPricingHandler = handlers.NewPricingHandler

var newMetrics = metrics.New

var initTracing = tracing.Initialize

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting pricing-service API")

	// Load configuration
	config := loadConfig()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := initTracing(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := newMetrics(metricsConfig)
	businessMetrics := middleware.NewBusinessMetrics(m)
	logger.Info("Metrics initialized")

	// Initialize MongoDB with instrumentation
	instrumentedMongo, err := newInstrumentedMongoClient(ctx, config.MongoDB, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer instrumentedMongo.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer with instrumentation
	instrumentedProducer := newInstrumentedKafkaProducer(config.Kafka, m, logger)
	defer instrumentedProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Collect circuit breakers so their state is inspectable over HTTP
	breakers := resilience.NewCircuitBreakerRegistry()
	breakers.Register(instrumentedMongo.Breaker(), instrumentedProducer.Breaker())

	// Initialize CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourcePricing)

	// Initialize repositories
	ruleRepo := newPricingRuleRepository(instrumentedMongo.Database(), eventFactory)
	seqRepo := newRuleSequenceRepository(instrumentedMongo.Database())

	// Initialize and start outbox publisher
	outboxPublisher := newOutboxPublisher(
		ruleRepo.GetOutboxRepository(),
		instrumentedProducer,
		logger.WithComponent("outbox-publisher"),
		m,
		config.Outbox,
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		return err
	}
	defer func() {
		if err := outboxPublisher.Stop(); err != nil {
			logger.WithError(err).Warn("Failed to stop outbox publisher")
		}
	}()
	logger.Info("Outbox publisher started")

	// Initialize application service
	pricingService := newPricingService(
		ruleRepo,
		seqRepo,
		logger,
	)

	// Start shipment events consumer to redeem discount usage on bookings.
	// Consumed messages are deduplicated so redeliveries cannot redeem a
	// discount twice.
	processedMessages := newProcessedMessageRepository(instrumentedMongo.Database())
	indexRetry := resilience.DefaultRetryConfig()
	indexRetry.RetryableErrors = func(error) bool { return true }
	if err := resilience.Retry(ctx, indexRetry, func() error {
		return processedMessages.EnsureIndexes(ctx)
	}); err != nil {
		logger.WithError(err).Warn("Failed to initialize message deduplication indexes")
	}
	dedupConfig := idempotency.DefaultConsumerConfig(serviceName, kafka.Topics.ShipmentEvents, config.Kafka.ConsumerGroup, processedMessages)

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()

	shipmentConsumer := newShipmentConsumer(config.Kafka, pricingService, dedupConfig, m, logger.WithComponent("shipment-consumer"), breakers)
	go func() {
		if err := shipmentConsumer.Start(consumerCtx); err != nil {
			logger.WithError(err).Error("Shipment consumer stopped")
		}
	}()
	defer func() {
		if err := shipmentConsumer.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close shipment consumer")
		}
	}()
	logger.Info("Shipment events consumer started", "topic", kafka.Topics.ShipmentEvents)

	// Register custom validators for request binding
	middleware.InitValidator()

	// Initialize handlers
	pricingHandler := newPricingHandler(pricingService, logger, businessMetrics)

	// Setup Gin router with middleware
	router := gin.New()

	// Apply standard middleware
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Add tracing middleware
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	// Add branch context middleware
	router.Use(middleware.BranchAuth(middleware.DefaultBranchAuthConfig()))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return instrumentedMongo.HealthCheck(ctx)
	}))
	router.GET("/health/breakers", middleware.BreakerStatus(serviceName, breakers))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		pricing := v1.Group("/pricing")
		{
			// Quoting
			pricing.POST("/calculate", pricingHandler.CalculatePrice)

			// Rule management
			rules := pricing.Group("/rules")
			{
				rules.GET("/applicable", pricingHandler.FindApplicableRules)
				rules.POST("", pricingHandler.CreateRule)
				rules.GET("", pricingHandler.ListRules)
				rules.GET("/:ruleCode", pricingHandler.GetRule)
				rules.PUT("/:ruleCode/activate", pricingHandler.ActivateRule)
				rules.PUT("/:ruleCode/deactivate", pricingHandler.DeactivateRule)

				// Tier management
				rules.POST("/:ruleCode/weight-tiers", pricingHandler.AddWeightTier)
				rules.DELETE("/:ruleCode/weight-tiers", pricingHandler.RemoveWeightTier)
				rules.POST("/:ruleCode/distance-tiers", pricingHandler.AddDistanceTier)
				rules.DELETE("/:ruleCode/distance-tiers", pricingHandler.RemoveDistanceTier)

				// Special services
				rules.POST("/:ruleCode/services", pricingHandler.AddSpecialService)
				rules.DELETE("/:ruleCode/services/:serviceCode", pricingHandler.RemoveSpecialService)

				// Discounts
				rules.POST("/:ruleCode/discounts", pricingHandler.AddDiscount)
				rules.DELETE("/:ruleCode/discounts/:discountCode", pricingHandler.RemoveDiscount)
				rules.POST("/:ruleCode/discounts/:discountCode/redeem", pricingHandler.RedeemDiscount)
			}
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
	Outbox     *outbox.PublisherConfig
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8015"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "samudra_pricing"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
			MinBytes:      1,
			MaxBytes:      10e6,
			MaxWait:       500 * time.Millisecond,
			CommitTimeout: 5 * time.Second,
		},
		Outbox: &outbox.PublisherConfig{
			PollInterval:     1 * time.Second,
			BatchSize:        100,
			CleanupInterval:  1 * time.Hour,
			RetentionSeconds: int64(getEnvInt("OUTBOX_RETENTION_DAYS", 7)) * 24 * 60 * 60,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
