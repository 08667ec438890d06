package aws

import (
	"context"
	"testing"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), ConfigOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != DefaultRegion {
		t.Fatalf("expected default region %q, got %s", DefaultRegion, cfg.Region)
	}
}

func TestLoadAWSConfig_WithEndpointOverride(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), ConfigOptions{
		Region:           "sa-east-1",
		EndpointOverride: "http://localhost:4566",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != "sa-east-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
	if cfg.BaseEndpoint == nil || *cfg.BaseEndpoint != "http://localhost:4566" {
		t.Fatalf("expected base endpoint override, got %v", cfg.BaseEndpoint)
	}
}

func TestLoadAWSConfig_MaxAttempts(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), ConfigOptions{MaxAttempts: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RetryMaxAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", cfg.RetryMaxAttempts)
	}

	if n := len((ConfigOptions{}).loadOptions()); n != 1 {
		t.Fatalf("expected only the region option, got %d", n)
	}
}

func TestNewClients(t *testing.T) {
	clients, err := NewClients(context.Background(), ConfigOptions{EndpointOverride: "http://localhost:4566"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clients.DynamoDB == nil || clients.SQS == nil || clients.CloudWatch == nil {
		t.Fatalf("expected every client, got %+v", clients)
	}
}
