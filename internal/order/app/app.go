package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/dal/repositories/order/postgres"
	outboxrepo "github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/dal/repositories/outbox/postgres"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/service/services/ordersvc"
	httptransport "github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/transport/http"
	outboxworker "github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/worker/outbox"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/otel"
	pgclient "github.com/DimitryIvaniuta/ecommerce-order-service/internal/postgres"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/rabbitmq"
	"github.com/spf13/viper"
)

// App represents the order service application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	postgresClient *pgclient.Client
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("order-svc")
	postgresClient := pgclient.MustNewClient("ORDER")
	rabbitMqClient := rabbitmq.MustNewClient()

	queueName := viper.GetString("rabbitmq.queue")
	if queueName == "" {
		panic("rabbitmq.queue is not set in config")
	}

	// The order topic must exist before the first publish.
	if _, err := rabbitMqClient.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
	}); err != nil {
		panic(err)
	}

	orderRepository := postgres.NewOrderRepository(postgresClient)
	outboxRepository := outboxrepo.NewOutboxRepository(postgresClient)

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(orderRepository),
		ordersvc.WithOutboxRepository(outboxRepository),
		ordersvc.WithPublisher(rabbitMqClient),
		ordersvc.WithQueueName(queueName),
	)

	transport := httptransport.NewHTTPTransport(orderSvc)
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(outboxRepository, rabbitMqClient)

	return &App{
		orderSvc:       orderSvc,
		transport:      transport,
		outboxWorker:   outboxWorker,
		postgresClient: postgresClient,
		rabbitMqClient: rabbitMqClient,
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
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	slog.Info("Application shutdown complete")
}
