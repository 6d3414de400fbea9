package awsutil

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options is the subset of AWS client settings shared by the store backends.
// Endpoint is set for S3/DynamoDB compatible services (minio, dynamodb-local).
type Options struct {
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

var loadDefaultConfig = awsconfig.LoadDefaultConfig

// LoadConfig uses static credentials when they are configured and falls back
// to the default provider chain (environment, shared files, instance role).
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	if opts.AccessKey != "" && opts.SecretKey != "" {
		return aws.Config{
			Region:      opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		}, nil
	}
	return loadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
}

func BaseEndpoint(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}
