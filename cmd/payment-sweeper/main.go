package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron"

	stripeclient "github.com/devdazzlee/Licorice4Good-sub001/internal/clients/http/stripe"
	orderspostgres "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/adapters/persistence/postgres"
	paymentsgateway "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/adapters/gateway"
	paymentsapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/application"
	platformpostgres "github.com/devdazzlee/Licorice4Good-sub001/internal/platform/postgres"
)

// The sweeper is the pull half of payment reconciliation: it
// periodically repairs orders whose webhook never arrived. SWEEP_CRON
// controls the cadence; the default re-checks every 15 minutes.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	cancel()
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot sweep payments")
	}

	gatewayClient, err := stripeclient.NewClient(
		envOrDefault("STRIPE_BASE_URL", "https://api.stripe.com"),
		os.Getenv("STRIPE_API_KEY"),
		nil,
	)
	if err != nil {
		log.Fatalf("failed to build payment gateway client: %v", err)
	}
	reconciler := paymentsapp.NewReconciler(
		orderspostgres.NewRepository(db),
		paymentsgateway.NewStripeGateway(gatewayClient),
		paymentsapp.WithLogger(logger),
	)
	staleWindow := staleWindowFromEnv()

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		report, err := reconciler.SweepPendingPayments(sweepCtx, staleWindow)
		if err != nil {
			logger.Error("payment sweep failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("payment sweep completed",
			slog.Int("fixed", report.Fixed),
			slog.Int("failed", report.Failed),
			slog.Int("still_pending", report.StillPending),
		)
	}

	// Spec includes a seconds field: on the hour, every 15 minutes.
	spec := envOrDefault("SWEEP_CRON", "0 */15 * * * *")
	if isTruthy(os.Getenv("SWEEP_ONCE")) {
		sweep()
		return
	}

	scheduler := cron.New()
	if err := scheduler.AddFunc(spec, sweep); err != nil {
		log.Fatalf("invalid SWEEP_CRON %q: %v", spec, err)
	}
	scheduler.Start()
	logger.Info("payment sweeper scheduled", slog.String("cron", spec), slog.Duration("stale_window", staleWindow))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Stop()
	logger.Info("payment sweeper stopped")
}

func staleWindowFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("PAYMENT_STALE_WINDOW_HOURS"))
	if raw == "" {
		return paymentsapp.DefaultStaleWindow
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return paymentsapp.DefaultStaleWindow
	}
	return time.Duration(hours) * time.Hour
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
