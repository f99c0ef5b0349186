package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	shippoclient "github.com/devdazzlee/Licorice4Good-sub001/internal/clients/http/shippo"
	ordersmemory "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/adapters/persistence/postgres"
	ordersports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
	shippingprovider "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/adapters/provider"
	shippingapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/application"
	shippingdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	shippingactivities "github.com/devdazzlee/Licorice4Good-sub001/internal/durable/temporal/activities/shipping"
	labelworkflows "github.com/devdazzlee/Licorice4Good-sub001/internal/durable/temporal/workflows/shipping"
	platformobservability "github.com/devdazzlee/Licorice4Good-sub001/internal/platform/observability"
	platformpostgres "github.com/devdazzlee/Licorice4Good-sub001/internal/platform/postgres"
)

func main() {
	ctx := context.Background()
	const serviceName = "order-reconciliation-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	orderRepo, cleanupRepo := buildOrderRepository(ctx, logger)
	defer cleanupRepo()

	providerClient, err := shippoclient.NewClient(
		envOrDefault("SHIPPO_BASE_URL", "https://api.goshippo.com"),
		os.Getenv("SHIPPO_API_TOKEN"),
		nil,
	)
	if err != nil {
		logger.Error("failed to build shipping provider client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fulfillment := shippingapp.New(orderRepo, shippingprovider.NewShippoProvider(providerClient), shipFromEnv(),
		shippingapp.WithLogger(logger))
	labelActivities := shippingactivities.NewActivities(fulfillment)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, labelworkflows.LabelPurchaseTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(labelworkflows.LabelPurchaseWorkflow, workflow.RegisterOptions{Name: labelworkflows.LabelPurchaseWorkflowName})
	w.RegisterActivityWithOptions(labelActivities.PurchaseLabel, activity.RegisterOptions{Name: shippingactivities.PurchaseLabelActivityName})

	logger.Info("worker listening", slog.String("taskQueue", labelworkflows.LabelPurchaseTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrderRepository(ctx context.Context, logger *slog.Logger) (ordersports.Repository, func()) {
	dsn := os.Getenv("POSTGRES_DSN")
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory order repository")
		return ordersmemory.NewRepository(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, dsn)
	if err != nil {
		logger.Warn("worker failed to connect to postgres (falling back to memory)", slog.String("error", err.Error()))
		return ordersmemory.NewRepository(), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("worker failed to unwrap postgres connection (falling back to memory)", slog.String("error", err.Error()))
		return ordersmemory.NewRepository(), func() {}
	}
	logger.Info("worker order repository configured with postgres")
	return orderspostgres.NewRepository(db), func() { _ = sqlDB.Close() }
}

func shipFromEnv() shippingdomain.Address {
	return shippingdomain.Address{
		Name:    envOrDefault("SHIP_FROM_NAME", "Licorice4Good Warehouse"),
		Street1: envOrDefault("SHIP_FROM_STREET1", "215 Clayton St"),
		City:    envOrDefault("SHIP_FROM_CITY", "San Francisco"),
		State:   envOrDefault("SHIP_FROM_STATE", "CA"),
		Zip:     envOrDefault("SHIP_FROM_ZIP", "94117"),
		Country: envOrDefault("SHIP_FROM_COUNTRY", "US"),
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
