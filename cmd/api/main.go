package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"github.com/ukegedo/fruver-orderflow/internal/aws"
	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/config"
	"github.com/ukegedo/fruver-orderflow/internal/customers"
	fruverevents "github.com/ukegedo/fruver-orderflow/internal/events"
	"github.com/ukegedo/fruver-orderflow/internal/handlers"
	"github.com/ukegedo/fruver-orderflow/internal/idempotency"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
	"github.com/ukegedo/fruver-orderflow/internal/metrics"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
	"github.com/ukegedo/fruver-orderflow/internal/reports"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	clients, err := aws.NewClients(ctx, cfg.AWS)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	catalogStore := catalog.NewStore(clients.DynamoDB, cfg.ProductsTable, cfg.CategoriesTable)
	customerStore := customers.NewStore(clients.DynamoDB, cfg.CustomersTable)
	orderStore := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)

	var notifier lifecycle.Notifier
	if cfg.QueueURL != "" {
		notifier = fruverevents.NewSQSNotifier(aws.NewPublisher(clients.SQS, cfg.QueueURL))
	} else {
		log.Printf("[api] ORDERS_QUEUE_URL not set, status changes will not be published")
	}

	if cfg.SeedCatalog {
		res, err := catalog.Seed(ctx, catalogStore)
		if err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
		log.Printf("[api] seeded categories=%d products=%d", res.Categories, res.Products)
	}

	r := handlers.NewRouter(handlers.HandlerConfig{
		Catalog:           catalogStore,
		Customers:         customerStore,
		Orders:            orderStore,
		Idempotency:       idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		Lifecycle:         lifecycle.NewManager(orderStore, catalogStore, customerStore, notifier),
		Reports:           reports.NewBuilder(catalogStore, orderStore, customerStore),
		Metrics:           metrics.NewServerMetrics("api"),
		LowStockThreshold: cfg.LowStockThreshold,
	})

	// RUN_LOCAL=true runs a plain HTTP server for development.
	if cfg.RunLocal {
		log.Printf("running local server on %s", cfg.ListenAddr)
		if err := r.Run(cfg.ListenAddr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
