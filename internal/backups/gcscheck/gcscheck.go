// Package gcscheck tests Google Cloud Storage backup destinations.
package gcscheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/vulnconsole/vulnconsole/internal/backups"
)

type bucketGetter interface {
	GetBucket(ctx context.Context, bucket string) error
}

// Checker verifies that the configured bucket can be read with the
// configured service account or the workload identity.
type Checker struct {
	newClient func(ctx context.Context, cfg backups.Config) (bucketGetter, error)
}

func New() *Checker {
	return &Checker{newClient: newClient}
}

func (c *Checker) Check(ctx context.Context, cfg backups.Config) error {
	client, err := c.newClient(ctx, cfg)
	if err != nil {
		return err
	}
	if err := client.GetBucket(ctx, cfg.Bucket); err != nil {
		return describeError(cfg.Bucket, err)
	}
	return nil
}

type storageClient struct {
	svc *storage.Service
}

func (s storageClient) GetBucket(ctx context.Context, bucket string) error {
	_, err := s.svc.Buckets.Get(bucket).Context(ctx).Do()
	return err
}

func newClient(ctx context.Context, cfg backups.Config) (bucketGetter, error) {
	creds, err := credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := storage.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return storageClient{svc: svc}, nil
}

// credentials parses the service account key, or finds the ambient
// workload identity credentials.
func credentials(ctx context.Context, cfg backups.Config) (*google.Credentials, error) {
	if cfg.UseWorkloadID {
		creds, err := google.FindDefaultCredentials(ctx, storage.DevstorageReadOnlyScope)
		if err != nil {
			return nil, fmt.Errorf("find workload identity credentials: %w", err)
		}
		return creds, nil
	}
	sa := strings.TrimSpace(cfg.ServiceAccount)
	if sa == "" {
		return nil, errors.New("service account is required")
	}
	creds, err := google.CredentialsFromJSON(ctx, []byte(sa), storage.DevstorageReadOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service account key: %w", err)
	}
	return creds, nil
}

func describeError(bucket string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("bucket %q does not exist: %w", bucket, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("access to bucket %q was denied: %w", bucket, err)
		}
	}
	return fmt.Errorf("check bucket %q: %w", bucket, err)
}
