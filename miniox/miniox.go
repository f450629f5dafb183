// Package miniox provides bucket-level helpers on top of the MinIO
// client: mirroring a bucket to disk, emptying and removing a bucket,
// uploading files.
package miniox

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the MinIO connection settings.
type Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Secure    bool   `mapstructure:"secure" yaml:"secure"`
}

// NewClient creates a MinIO client from the configuration.
func NewClient(cfg *Config) (*minio.Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("miniox: endpoint is required")
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
}

// EnsureBucket creates the bucket when it does not exist.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("miniox: check bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("miniox: create bucket %q: %w", bucket, err)
	}
	return nil
}

// UploadObject uploads a local file to bucket/key.
func UploadObject(ctx context.Context, client *minio.Client, bucket, key, path string) error {
	_, err := client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("miniox: upload %q: %w", key, err)
	}
	return nil
}

// DownloadBucket mirrors every object of the bucket into dir,
// recreating the key hierarchy as directories.
func DownloadBucket(ctx context.Context, client *minio.Client, bucket, dir string) error {
	for object := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return fmt.Errorf("miniox: list %q: %w", bucket, object.Err)
		}
		dest := filepath.Join(dir, filepath.FromSlash(object.Key))
		if err := client.FGetObject(ctx, bucket, object.Key, dest, minio.GetObjectOptions{}); err != nil {
			return fmt.Errorf("miniox: download %q: %w", object.Key, err)
		}
	}
	return nil
}

// RemoveBucket deletes every object of the bucket, then the bucket
// itself. It fails when any object cannot be removed.
func RemoveBucket(ctx context.Context, client *minio.Client, bucket string) error {
	objects := make(chan minio.ObjectInfo)
	go func() {
		defer close(objects)
		for object := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
			if object.Err == nil {
				objects <- object
			}
		}
	}()

	var failed []string
	for err := range client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		failed = append(failed, err.ObjectName)
	}
	if len(failed) > 0 {
		return fmt.Errorf("miniox: %d objects could not be removed from %q: %v", len(failed), bucket, failed)
	}

	if err := client.RemoveBucket(ctx, bucket); err != nil {
		return fmt.Errorf("miniox: remove bucket %q: %w", bucket, err)
	}
	return nil
}
