// Package s3check tests Amazon S3 backup destinations.
package s3check

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/vulnconsole/vulnconsole/internal/backups"
)

const defaultHTTPTimeout = 30 * time.Second

type headBucketAPI interface {
	HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Checker verifies that the configured bucket exists and is reachable with
// the configured credentials.
type Checker struct {
	newClient func(ctx context.Context, cfg backups.Config) (headBucketAPI, error)
}

func New() *Checker {
	return &Checker{newClient: newClient}
}

func (c *Checker) Check(ctx context.Context, cfg backups.Config) error {
	client, err := c.newClient(ctx, cfg)
	if err != nil {
		return err
	}
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)})
	if err != nil {
		return describeError(cfg.Bucket, err)
	}
	return nil
}

func newClient(ctx context.Context, cfg backups.Config) (headBucketAPI, error) {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		return nil, errors.New("region is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithHTTPClient(&http.Client{Timeout: defaultHTTPTimeout}),
	}
	if !cfg.UseIAM {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(cfg.AccessKeyID),
			strings.TrimSpace(cfg.SecretAccessKey),
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := EndpointURL(cfg.Endpoint)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// EndpointURL returns endpoint with an https scheme when it has none.
func EndpointURL(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return endpoint
}

func describeError(bucket string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return fmt.Errorf("bucket %q does not exist: %w", bucket, err)
		case "Forbidden", "AccessDenied":
			return fmt.Errorf("access to bucket %q was denied: %w", bucket, err)
		}
	}
	return fmt.Errorf("check bucket %q: %w", bucket, err)
}
