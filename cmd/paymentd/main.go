package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fanora/payment-service/internal/application/usecase"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/service"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	"github.com/fanora/payment-service/internal/infrastructure/adapters"
	"github.com/fanora/payment-service/internal/infrastructure/config"
	"github.com/fanora/payment-service/internal/infrastructure/messaging"
	infrapostgres "github.com/fanora/payment-service/internal/infrastructure/postgres"
	grpcpresentation "github.com/fanora/payment-service/internal/presentation/grpc"
	"github.com/fanora/payment-service/internal/presentation/rest"
	"github.com/fanora/payment-service/pkg/auth"
	"github.com/fanora/payment-service/pkg/kafka"
	"github.com/fanora/payment-service/pkg/observability"
	"github.com/fanora/payment-service/pkg/postgres"
)

const notificationsTopic = "notification.requests"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()
	cfg.Validate()

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	logger.Info("starting payment-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Initialize tracing.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer shutdownTracer(ctx)
	}

	// Initialize metrics.
	_, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	// Database connection and migrations.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	dbCfg := postgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}
	pool, err := postgres.NewPool(dbCtx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(dbCfg.DSN(), "file://./migrations"); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database, migrations applied")

	// Kafka producer shared by publisher, notifier and orphan queue.
	producer := kafka.NewProducer(kafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	})
	defer producer.Close()

	publisher := messaging.NewPublisher(producer)
	notifier := messaging.NewKafkaNotifier(producer, notificationsTopic)
	orphanQueue := messaging.NewOrphanQueue(producer, cfg.Kafka.OrphanTopic)

	// Repositories.
	transactionRepo := infrapostgres.NewTransactionRepo(pool)
	payoutRepo := infrapostgres.NewPayoutRepo(pool)
	riskProfileRepo := infrapostgres.NewRiskProfileRepo(pool)
	dedupeRepo := infrapostgres.NewDedupeRepo(pool)
	quarantineRepo := infrapostgres.NewQuarantineRepo(pool)
	deadLetterRepo := infrapostgres.NewDeadLetterRepo(pool)
	balanceReader := infrapostgres.NewBalanceReader(pool)

	// Provider adapters.
	registry := port.NewAdapterRegistry(
		adapters.NewCCBillAdapter(adapters.CCBillConfig{
			BaseURL:       cfg.Providers.CCBill.BaseURL,
			ClientAccnum:  cfg.Providers.CCBill.MerchantID,
			APIKey:        cfg.Providers.CCBill.APIKey,
			WebhookSecret: cfg.Providers.CCBill.WebhookSecret,
		}, logger),
		adapters.NewSegpayAdapter(adapters.SegpayConfig{
			BaseURL:       cfg.Providers.Segpay.BaseURL,
			PackageID:     cfg.Providers.Segpay.MerchantID,
			APIKey:        cfg.Providers.Segpay.APIKey,
			WebhookSecret: cfg.Providers.Segpay.WebhookSecret,
		}, logger),
		adapters.NewEpochAdapter(adapters.EpochConfig{
			BaseURL:      cfg.Providers.Epoch.BaseURL,
			MemberID:     cfg.Providers.Epoch.MerchantID,
			APIKey:       cfg.Providers.Epoch.APIKey,
			WebhookToken: cfg.Providers.Epoch.WebhookSecret,
		}, logger),
		adapters.NewVendoAdapter(adapters.VendoConfig{
			BaseURL:       cfg.Providers.Vendo.BaseURL,
			MerchantID:    cfg.Providers.Vendo.MerchantID,
			SharedSecret:  cfg.Providers.Vendo.APIKey,
			WebhookSecret: cfg.Providers.Vendo.WebhookSecret,
		}, logger),
		adapters.NewVerotelAdapter(adapters.VerotelConfig{
			BaseURL:       cfg.Providers.Verotel.BaseURL,
			ShopID:        cfg.Providers.Verotel.MerchantID,
			APIKey:        cfg.Providers.Verotel.APIKey,
			WebhookSecret: cfg.Providers.Verotel.WebhookSecret,
		}, logger),
		adapters.NewPaxumAdapter(adapters.PaxumConfig{
			BaseURL:       cfg.Providers.Paxum.BaseURL,
			AccountID:     cfg.Providers.Paxum.MerchantID,
			APIKey:        cfg.Providers.Paxum.APIKey,
			WebhookSecret: cfg.Providers.Paxum.WebhookSecret,
		}, logger),
	)

	// Domain services.
	disabled := make([]valueobject.Provider, 0, len(cfg.Providers.Disabled))
	for _, name := range cfg.Providers.Disabled {
		provider, err := valueobject.NewProvider(name)
		if err != nil {
			logger.Warn("ignoring unknown disabled provider", "provider", name)
			continue
		}
		disabled = append(disabled, provider)
	}
	selector := service.NewGatewaySelector(disabled...)
	riskEngine := service.NewRiskEngine()
	reconciler := service.NewLedgerReconciler(
		transactionRepo, payoutRepo,
		dedupeRepo, quarantineRepo, orphanQueue, deadLetterRepo,
		publisher, notifier,
		cfg.Kafka.EventsTopic, logger,
	)

	// Use cases.
	processPaymentUC := usecase.NewProcessPayment(
		transactionRepo, riskProfileRepo, registry, selector, riskEngine, publisher, logger,
	)
	handleWebhookUC := usecase.NewHandleWebhook(
		registry, reconciler, transactionRepo, riskProfileRepo, riskEngine, logger,
	)
	processPayoutUC := usecase.NewProcessPayout(
		payoutRepo, balanceReader, registry, publisher, logger,
	)
	getTransactionUC := usecase.NewGetTransaction(transactionRepo)
	adjustRiskUC := usecase.NewAdjustRisk(riskProfileRepo, riskEngine, publisher, logger)

	// Orphaned webhook consumer feeds requeued events back through the
	// reconciler with their attempt count.
	orphanConsumer := kafka.NewConsumer(
		kafka.Config{Brokers: cfg.Kafka.Brokers, ConsumerGroup: cfg.Kafka.ConsumerGroup},
		cfg.Kafka.OrphanTopic,
		messaging.OrphanHandler(handleWebhookUC.Reconcile, logger),
		logger,
	)
	defer orphanConsumer.Close()

	// gRPC server.
	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Expiration: 24 * time.Hour,
	})
	if err != nil {
		logger.Error("failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	grpcHandler := grpcpresentation.NewPaymentServiceHandler(
		processPaymentUC, getTransactionUC, processPayoutUC, adjustRiskUC,
	)
	grpcServer := grpcpresentation.NewServer(
		grpcHandler, fmt.Sprintf(":%d", cfg.GRPCPort), logger, jwtService,
	)

	// HTTP server: webhooks, health checks, metrics.
	httpMux := http.NewServeMux()
	rest.NewWebhookHandler(handleWebhookUC, logger).RegisterRoutes(httpMux)
	rest.NewHealthHandler(pool, logger).RegisterRoutes(httpMux)
	httpMux.Handle("/metrics", metricsHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      httpMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start servers and consumer.
	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	go func() {
		if err := orphanConsumer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("orphan consumer error: %w", err)
		}
	}()

	logger.Info("payment-service started")

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down payment-service")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("payment-service stopped")
}
