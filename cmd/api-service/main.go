package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/jobry/internal/api/audit"
	"github.com/cuongbtq/jobry/internal/api/handler"
	"github.com/cuongbtq/jobry/internal/api/router"
	"github.com/cuongbtq/jobry/internal/api/service"
	"github.com/cuongbtq/jobry/internal/api/storage"
	"github.com/cuongbtq/jobry/internal/config"
	"github.com/cuongbtq/jobry/shared/logger"
	"github.com/cuongbtq/jobry/shared/postgresql"
	"github.com/cuongbtq/jobry/shared/rabbitmq"
	"github.com/cuongbtq/jobry/shared/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	appLogger.Info("Database connection established",
		slog.String("driver", dbClient.GetDB().DriverName()),
	)

	// Initialize the search audit sink
	recorder, sinkCloser, err := initAuditRecorder(cfg, dbClient, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize audit sink: %w", err)
	}
	if sinkCloser != nil {
		defer sinkCloser.Close()
	}

	appLogger.Info("Search audit sink ready",
		slog.String("sink", cfg.Audit.Sink),
	)

	feed := service.NewFeedService(&service.Config{
		Logger:       appLogger.Logger,
		Store:        storage.NewStorage(dbClient.GetDB()),
		Recorder:     recorder,
		PageSize:     cfg.Search.PageSize,
		QueryTimeout: cfg.Search.QueryTimeout,
		AuditTimeout: cfg.Audit.Timeout,
	})

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, feed, dbClient)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Int("page_size", feed.PageSize()),
		slog.Duration("query_timeout", cfg.Search.QueryTimeout),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdown(ctx, srv, feed, appLogger.Logger); err != nil {
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

type auditWaiter interface {
	Wait(ctx context.Context) error
}

// shutdown stops the HTTP server, then waits for in-flight audit writes, which
// outlive their requests. Audits are drained even when the server is forced
// down.
func shutdown(ctx context.Context, srv httpShutdowner, audits auditWaiter, logger *slog.Logger) error {
	shutdownErr := srv.Shutdown(ctx)
	if shutdownErr != nil {
		logger.Error("Server forced to shutdown",
			slog.Any("error", shutdownErr),
		)
	}

	if err := audits.Wait(ctx); err != nil {
		logger.Warn("Pending search audits abandoned",
			slog.Any("error", err),
		)
	}

	return shutdownErr
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Driver:          cfg.Driver,
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initAuditRecorder builds the recorder for the configured sink. The returned
// closer, if any, owns the sink's connection.
func initAuditRecorder(cfg *config.Config, dbClient *postgresql.Client, logger *slog.Logger) (audit.Recorder, io.Closer, error) {
	switch cfg.Audit.Sink {
	case config.AuditSinkDatabase:
		return audit.NewDatabaseRecorder(dbClient.GetDB()), nil, nil

	case config.AuditSinkQueue:
		rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, logger)
		if err != nil {
			return nil, nil, err
		}
		return audit.NewQueueRecorder(rabbitClient), rabbitClient, nil

	case config.AuditSinkRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rdb, err := redis.NewClient(ctx, cfg.Redis.URL, logger)
		if err != nil {
			return nil, nil, err
		}
		return audit.NewRedisRecorder(rdb, cfg.Audit.Channel), rdb, nil

	case config.AuditSinkNone:
		return audit.Discard{}, nil, nil
	}

	return nil, nil, fmt.Errorf("unsupported audit sink: %q", cfg.Audit.Sink)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, feed *service.FeedService, dbClient *postgresql.Client) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	handlerDeps := &handler.Dependencies{
		Logger:      logger,
		Feed:        feed,
		Database:    dbClient,
		ServiceName: cfg.App.Name,
	}

	return router.SetupRouter(handlerDeps)
}
