package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

func LoadAWSConfig(ctx context.Context, opts ConfigOptions) (sdkaws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, opts.loadOptions()...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cfg, nil
}
