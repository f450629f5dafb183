package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v4"
)

// Upload stores the content of r under key.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, opts *PutOptions) (Stat, error) {
	if opts == nil {
		opts = &PutOptions{}
	}
	storageKey := c.keys.BuildKey(key)

	if opts.IfNotExists {
		if _, err := c.Head(ctx, key); err == nil {
			return Stat{}, &StorageError{Op: "upload", Key: key, Err: ErrConflict}
		} else if !errors.Is(err, ErrNotFound) {
			return Stat{}, err
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Stat{}, &StorageError{Op: "upload", Key: key, Err: err}
	}

	input := &awss3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(storageKey),
		Body:   bytes.NewReader(data),
	}
	applyPutOptions(input, opts)

	out, err := c.api.PutObject(ctx, input)
	if err != nil {
		return Stat{}, mapError(err, "upload", key)
	}

	c.logger.Debug("s3 object uploaded", "key", key, "size", len(data))
	return Stat{
		Key:          key,
		Size:         int64(len(data)),
		ETag:         aws.ToString(out.ETag),
		ContentType:  opts.ContentType,
		Metadata:     opts.Metadata,
		LastModified: c.clock(),
	}, nil
}

// UploadBytes stores a byte slice under key.
func (c *Client) UploadBytes(ctx context.Context, key string, data []byte, opts *PutOptions) (Stat, error) {
	return c.Upload(ctx, key, bytes.NewReader(data), opts)
}

// UploadFile stores a local file under key, detecting the content type
// from the extension when unset.
func (c *Client) UploadFile(ctx context.Context, key, path string, opts *PutOptions) (Stat, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stat{}, &StorageError{Op: "upload_file", Key: key, Err: err}
	}
	defer f.Close()

	if opts == nil {
		opts = &PutOptions{}
	}
	if opts.ContentType == "" {
		opts.ContentType = mime.TypeByExtension(filepath.Ext(path))
	}
	return c.Upload(ctx, key, f, opts)
}

// Download returns a streaming reader over the object and its
// metadata. The caller must close the reader.
func (c *Client) Download(ctx context.Context, key string) (Reader, Stat, error) {
	out, err := c.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.keys.BuildKey(key)),
	})
	if err != nil {
		return nil, Stat{}, mapError(err, "download", key)
	}

	stat := Stat{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ETag:        aws.ToString(out.ETag),
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
	}
	if out.LastModified != nil {
		stat.LastModified = *out.LastModified
	}
	return &sizedReader{ReadCloser: out.Body, size: stat.Size}, stat, nil
}

// DownloadBytes returns the whole object content.
func (c *Client) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	r, _, err := c.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &StorageError{Op: "download", Key: key, Err: err}
	}
	return data, nil
}

// DownloadTo copies the object content to a local file, creating
// parent directories as needed.
func (c *Client) DownloadTo(ctx context.Context, key, path string) (Stat, error) {
	r, stat, err := c.Download(ctx, key)
	if err != nil {
		return Stat{}, err
	}
	defer r.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Stat{}, &StorageError{Op: "download_to", Key: key, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return Stat{}, &StorageError{Op: "download_to", Key: key, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return Stat{}, &StorageError{Op: "download_to", Key: key, Err: err}
	}
	return stat, nil
}

// Head returns object metadata without the payload.
func (c *Client) Head(ctx context.Context, key string) (Stat, error) {
	out, err := c.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.keys.BuildKey(key)),
	})
	if err != nil {
		return Stat{}, mapError(err, "head", key)
	}

	stat := Stat{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ETag:        aws.ToString(out.ETag),
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
	}
	if out.LastModified != nil {
		stat.LastModified = *out.LastModified
	}
	return stat, nil
}

// Exists reports whether the object exists.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Head(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns one page of objects.
func (c *Client) List(ctx context.Context, opts ListOptions) (ListPage, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(c.cfg.Bucket),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(c.keys.BuildKey(opts.Prefix))
	} else if prefix := c.keys.BuildKey(""); prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if opts.Delimiter != "" {
		input.Delimiter = aws.String(opts.Delimiter)
	}
	if opts.PageSize > 0 {
		input.MaxKeys = aws.Int32(opts.PageSize)
	}
	if opts.ContinuationToken != "" {
		input.ContinuationToken = aws.String(opts.ContinuationToken)
	}

	out, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return ListPage{}, mapError(err, "list", opts.Prefix)
	}

	page := ListPage{IsTruncated: aws.ToBool(out.IsTruncated)}
	if out.NextContinuationToken != nil {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	for _, obj := range out.Contents {
		stat := Stat{
			Key:  c.keys.StripKey(aws.ToString(obj.Key)),
			Size: aws.ToInt64(obj.Size),
			ETag: aws.ToString(obj.ETag),
		}
		if obj.LastModified != nil {
			stat.LastModified = *obj.LastModified
		}
		page.Keys = append(page.Keys, stat)
	}
	for _, p := range out.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, c.keys.StripKey(aws.ToString(p.Prefix)))
	}
	return page, nil
}

// ListAll walks every page for a prefix and returns all objects.
func (c *Client) ListAll(ctx context.Context, prefix string) ([]Stat, error) {
	var stats []Stat
	opts := ListOptions{Prefix: prefix}
	for {
		page, err := c.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		stats = append(stats, page.Keys...)
		if !page.IsTruncated || page.NextToken == "" {
			return stats, nil
		}
		opts.ContinuationToken = page.NextToken
	}
}

// Delete removes a single object.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.keys.BuildKey(key)),
	})
	if err != nil {
		return mapError(err, "delete", key)
	}
	return nil
}

// DeleteBatch removes up to 1000 objects per request and returns the
// keys that failed.
func (c *Client) DeleteBatch(ctx context.Context, keys []string) ([]string, error) {
	var failed []string
	for start := 0; start < len(keys); start += 1000 {
		end := start + 1000
		if end > len(keys) {
			end = len(keys)
		}

		objects := make([]s3types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, s3types.ObjectIdentifier{
				Key: aws.String(c.keys.BuildKey(key)),
			})
		}

		out, err := c.api.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
			Bucket: aws.String(c.cfg.Bucket),
			Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return keys[start:], mapError(err, "delete_batch", "")
		}
		for _, e := range out.Errors {
			failed = append(failed, c.keys.StripKey(aws.ToString(e.Key)))
		}
	}

	if len(failed) > 0 {
		return failed, &StorageError{
			Op:  "delete_batch",
			Err: fmt.Errorf("%d of %d objects failed to delete", len(failed), len(keys)),
		}
	}
	return nil, nil
}

func applyPutOptions(input *awss3.PutObjectInput, opts *PutOptions) {
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if opts.ContentEncoding != "" {
		input.ContentEncoding = aws.String(opts.ContentEncoding)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}
}

// retryOp runs fn with exponential backoff until it succeeds, fails
// with a non-retryable error, or the retry budget is spent.
func (c *Client) retryOp(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffInitial
	b.MaxInterval = c.cfg.BackoffMax

	wrapped := func() error {
		err := fn()
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(c.cfg.MaxRetries))
	return backoff.Retry(wrapped, policy)
}
