package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/ukegedo/fruver-orderflow/internal/aws"
	"github.com/ukegedo/fruver-orderflow/internal/config"
	"github.com/ukegedo/fruver-orderflow/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	clients, err := aws.NewClients(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	p := NewProcessor(metrics.NewRecorder(clients.CloudWatch, cfg.MetricsNamespace), cfg.LowStockThreshold)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"order_id":"local-order-1","from":"IN_PROCESS","to":"FULFILLED",` +
				`"stock":[{"product_id":"local-product-1","product_name":"Mango","sold":10,"stock":4}]}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
