package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"AWS_REGION", "AWS_CLIENT_MAX_ATTEMPTS", "ORDERS_TABLE", "LOW_STOCK_THRESHOLD", "IDEMPOTENCY_TTL", "RUN_LOCAL", "SEED_CATALOG", "LISTEN_ADDR"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Zero(t, cfg.AWS.MaxAttempts)
	assert.Equal(t, "orders", cfg.OrdersTable)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, 48*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.False(t, cfg.RunLocal)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("AWS_ENDPOINT_OVERRIDE", "http://localhost:4566")
	t.Setenv("AWS_CLIENT_MAX_ATTEMPTS", "6")
	t.Setenv("ORDERS_TABLE", "fruver-orders")
	t.Setenv("LOW_STOCK_THRESHOLD", "25")
	t.Setenv("IDEMPOTENCY_TTL", "2h")
	t.Setenv("RUN_LOCAL", "true")
	t.Setenv("SEED_CATALOG", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sa-east-1", cfg.AWS.Region)
	assert.Equal(t, "http://localhost:4566", cfg.AWS.EndpointOverride)
	assert.Equal(t, 6, cfg.AWS.MaxAttempts)
	assert.Equal(t, "fruver-orders", cfg.OrdersTable)
	assert.Equal(t, 25, cfg.LowStockThreshold)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.True(t, cfg.RunLocal)
	assert.True(t, cfg.SeedCatalog)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"AWS_CLIENT_MAX_ATTEMPTS": "lots",
		"LOW_STOCK_THRESHOLD":     "many",
		"IDEMPOTENCY_TTL":         "two days",
		"RUN_LOCAL":               "yes please",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Setenv("LOW_STOCK_THRESHOLD", "-1")
	_, err := Load()
	assert.Error(t, err)
}
