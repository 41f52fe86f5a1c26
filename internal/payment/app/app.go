package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/otel"
	inboxrepo "github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/dal/repositories/inbox/postgres"
	paymentrepo "github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/dal/repositories/payment/postgres"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/service/services/paymentsvc"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/transport/consumer"
	inboxworker "github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/worker/inbox"
	pgclient "github.com/DimitryIvaniuta/ecommerce-order-service/internal/postgres"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/rabbitmq"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// App represents the payment service application.
type App struct {
	paymentSvc     *paymentsvc.PaymentService
	consumerTransp *consumer.Consumer
	inboxWorker    *inboxworker.Worker
	rabbitMqClient *rabbitmq.Client
	postgresClient *pgclient.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("payment-svc")
	rabbitMqClient := rabbitmq.MustNewClient()
	postgresClient := pgclient.MustNewClient("PAYMENT")

	paymentRepository := paymentrepo.NewPaymentRepository(postgresClient)
	inboxRepository := inboxrepo.NewInboxRepository(postgresClient)

	// Placeholder amount: real derivation is an external business rule.
	defaultAmount := viper.GetFloat64("payment.default_amount")
	if defaultAmount == 0 {
		defaultAmount = 100.00
	}

	paymentSvc := paymentsvc.MustNewPaymentService(
		paymentsvc.WithPaymentRepository(paymentRepository),
		paymentsvc.WithDefaultAmount(decimal.NewFromFloat(defaultAmount)),
	)

	consumerTransp := consumer.NewConsumer(rabbitMqClient, paymentSvc, inboxRepository)

	inboxWorker := inboxworker.NewWorker(inboxRepository, paymentSvc)

	return &App{
		paymentSvc:     paymentSvc,
		consumerTransp: consumerTransp,
		inboxWorker:    inboxWorker,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting consumer")
		if err := a.consumerTransp.Run(ctx); err != nil {
			slog.Error("Consumer error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting inbox worker")
		a.inboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components.
// It shuts down components sequentially: inbox worker, consumer, RabbitMQ,
// PostgreSQL, and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.inboxWorker.Stop()
	slog.Info("Inbox worker stopped gracefully")

	if err := a.consumerTransp.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	} else {
		slog.Info("Consumer stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
