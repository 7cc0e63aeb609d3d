package docstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"artisan_dispo/internal/config"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client stores verification documents (KBIS extracts, insurance
// attestations, identity scans) in an S3-compatible bucket.
type Client interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, objectName string) error
	IsEnabled() bool
}

type client struct {
	mc     *minio.Client
	bucket string
	log    *slog.Logger
}

// NewClient builds the document store client and ensures the bucket exists.
func NewClient(ctx context.Context, cfg config.DocstoreConfig, log *slog.Logger) (Client, error) {
	const op = "docstore.NewClient"

	if !cfg.Enabled {
		return &noopClient{log: log}, nil
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &client{mc: mc, bucket: cfg.Bucket, log: log}, nil
}

func (c *client) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	const op = "docstore.Client.Upload"

	_, err := c.mc.PutObject(ctx, c.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *client) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	const op = "docstore.Client.PresignedGetURL"

	u, err := c.mc.PresignedGetObject(ctx, c.bucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return u.String(), nil
}

func (c *client) Remove(ctx context.Context, objectName string) error {
	const op = "docstore.Client.Remove"

	if err := c.mc.RemoveObject(ctx, c.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *client) IsEnabled() bool {
	return true
}

// noopClient keeps local development working without object storage.
type noopClient struct {
	log *slog.Logger
}

func (c *noopClient) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	c.log.Debug("docstore is disabled, discarding upload", slog.String("object", objectName))
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func (c *noopClient) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return "", fmt.Errorf("docstore is disabled")
}

func (c *noopClient) Remove(ctx context.Context, objectName string) error {
	return nil
}

func (c *noopClient) IsEnabled() bool {
	return false
}
