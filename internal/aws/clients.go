package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// ConfigOptions carries the settings that shape the SDK config shared by
// the api, the worker and fruverctl.
type ConfigOptions struct {
	Region string
	// EndpointOverride points every client at a local emulator (e.g. http://localhost:4566).
	EndpointOverride string
	// MaxAttempts caps attempts per SDK call, retries included. Zero keeps the SDK default.
	MaxAttempts int
}

func (o ConfigOptions) loadOptions() []func(*config.LoadOptions) error {
	region := o.Region
	if region == "" {
		region = DefaultRegion
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if o.EndpointOverride != "" {
		opts = append(opts, config.WithBaseEndpoint(o.EndpointOverride))
	}
	if o.MaxAttempts > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(o.MaxAttempts))
	}
	return opts
}

// Clients holds the order store, event queue and metrics clients.
type Clients struct {
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// NewClients loads the SDK config for opts and builds every client from it.
func NewClients(ctx context.Context, opts ConfigOptions) (*Clients, error) {
	cfg, err := LoadAWSConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	return clientsFromConfig(cfg), nil
}

func clientsFromConfig(cfg sdkaws.Config) *Clients {
	return &Clients{
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}
}
