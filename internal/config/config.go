// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ukegedo/fruver-orderflow/internal/aws"
)

// Config holds every setting shared by the binaries.
type Config struct {
	AWS aws.ConfigOptions

	ProductsTable    string
	CategoriesTable  string
	CustomersTable   string
	OrdersTable      string
	IdempotencyTable string

	QueueURL         string
	MetricsNamespace string

	LowStockThreshold int
	IdempotencyTTL    time.Duration

	RunLocal    bool
	ListenAddr  string
	SeedCatalog bool
}

// Load reads the environment. Unset variables take their defaults; malformed
// numbers, durations and booleans are errors.
func Load() (Config, error) {
	cfg := Config{
		AWS: aws.ConfigOptions{
			Region:           getenv("AWS_REGION", aws.DefaultRegion),
			EndpointOverride: os.Getenv("AWS_ENDPOINT_OVERRIDE"),
		},
		ProductsTable:    getenv("PRODUCTS_TABLE", "products"),
		CategoriesTable:  getenv("CATEGORIES_TABLE", "categories"),
		CustomersTable:   getenv("CUSTOMERS_TABLE", "customers"),
		OrdersTable:      getenv("ORDERS_TABLE", "orders"),
		IdempotencyTable: getenv("IDEMPOTENCY_TABLE", "idempotency"),
		QueueURL:         os.Getenv("ORDERS_QUEUE_URL"),
		MetricsNamespace: getenv("METRICS_NAMESPACE", "Fruver/Orders"),
		ListenAddr:       getenv("LISTEN_ADDR", ":8080"),
	}

	var err error
	if cfg.AWS.MaxAttempts, err = getenvInt("AWS_CLIENT_MAX_ATTEMPTS", 0); err != nil {
		return cfg, err
	}
	if cfg.LowStockThreshold, err = getenvInt("LOW_STOCK_THRESHOLD", 10); err != nil {
		return cfg, err
	}
	if cfg.LowStockThreshold < 0 {
		return cfg, fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	if cfg.IdempotencyTTL, err = getenvDuration("IDEMPOTENCY_TTL", 48*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.RunLocal, err = getenvBool("RUN_LOCAL", false); err != nil {
		return cfg, err
	}
	if cfg.SeedCatalog, err = getenvBool("SEED_CATALOG", false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
