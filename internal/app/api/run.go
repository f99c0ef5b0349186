package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	shippoclient "github.com/devdazzlee/Licorice4Good-sub001/internal/clients/http/shippo"
	stripeclient "github.com/devdazzlee/Licorice4Good-sub001/internal/clients/http/stripe"
	ordersmemory "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/adapters/persistence/postgres"
	ordersports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
	paymentsgateway "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/adapters/gateway"
	paymentsobs "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/adapters/observability"
	paymentsapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/application"
	riskorderhistory "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/adapters/orderhistory"
	riskobs "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/adapters/observability"
	riskapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/application"
	shippingobs "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/adapters/observability"
	shippingprovider "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/adapters/provider"
	shippingworkflows "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/adapters/workflows"
	shippingapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/application"
	shippingports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
	platformmigrations "github.com/devdazzlee/Licorice4Good-sub001/internal/platform/migrations"
	platformobservability "github.com/devdazzlee/Licorice4Good-sub001/internal/platform/observability"
	platformpostgres "github.com/devdazzlee/Licorice4Good-sub001/internal/platform/postgres"
)

// Run boots the reconciliation engine's HTTP API with observability,
// repositories, external clients, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "order-reconciliation-api"
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	orderRepo, customerReader, cleanupRepo := buildRepositories(ctx, cfg, logger)
	defer cleanupRepo()

	historyReader := riskorderhistory.NewReader(orderRepo, customerReader)
	riskEngine := riskapp.NewEngine(riskapp.DefaultConfig(), historyReader, historyReader)
	assessor := riskobs.New(riskEngine,
		riskobs.WithLogger(logger),
		riskobs.WithTracer(instruments.Tracer("internal.risk.application")),
		riskobs.WithMeter(instruments.Meter("internal.risk.application")),
	)

	gatewayClient, err := stripeclient.NewClient(cfg.StripeBaseURL, cfg.StripeAPIKey, nil)
	if err != nil {
		return fmt.Errorf("failed to build payment gateway client: %w", err)
	}
	reconciler := paymentsapp.NewReconciler(orderRepo, paymentsgateway.NewStripeGateway(gatewayClient),
		paymentsapp.WithLogger(logger))
	payments := paymentsobs.New(reconciler,
		paymentsobs.WithTracer(instruments.Tracer("internal.payments.application")),
		paymentsobs.WithMeter(instruments.Meter("internal.payments.application")),
	)

	providerClient, err := shippoclient.NewClient(cfg.ShippoBaseURL, cfg.ShippoToken, nil)
	if err != nil {
		return fmt.Errorf("failed to build shipping provider client: %w", err)
	}
	orchestrator := shippingapp.New(orderRepo, shippingprovider.NewShippoProvider(providerClient), cfg.ShipFrom,
		shippingapp.WithLogger(logger))
	fulfillment := shippingobs.New(orchestrator,
		shippingobs.WithTracer(instruments.Tracer("internal.shipping.application")),
		shippingobs.WithMeter(instruments.Meter("internal.shipping.application")),
	)

	var labels shippingports.WorkflowOrchestrator = shippingworkflows.NewInlineLabelWorkflows(fulfillment)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running inline label purchase", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		labels = shippingworkflows.NewTemporalLabelWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := NewHandlers(orderRepo, assessor, payments, fulfillment, labels, cfg.PaymentStaleWindow)
	router := NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))

	addr := ":" + cfg.Port
	logger.Info("reconciliation API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("reconciliation API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func buildRepositories(ctx context.Context, cfg Config, logger *slog.Logger) (ordersports.Repository, ordersports.CustomerReader, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return ordersmemory.NewRepository(), ordersmemory.NewCustomerStore(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return ordersmemory.NewRepository(), ordersmemory.NewCustomerStore(), func() {}
	}
	if err := platformmigrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to memory", slog.String("error", err.Error()))
		return ordersmemory.NewRepository(), ordersmemory.NewCustomerStore(), closeDB(db)
	}
	logger.Info("order repository configured with postgres")
	return orderspostgres.NewRepository(db), orderspostgres.NewCustomerRepository(db), closeDB(db)
}

func closeDB(db *gorm.DB) func() {
	return func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
