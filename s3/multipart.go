package s3

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// MultipartUpload streams src to key in chunks, uploading parts
// concurrently. When src fits in a single part the multipart session
// is aborted and the data is sent as one plain PUT, since S3 rejects
// multipart uploads whose only part is below the minimum size.
func (c *Client) MultipartUpload(ctx context.Context, key string, src io.Reader, cfg *MultipartConfig, opts *PutOptions) (Stat, error) {
	if cfg == nil {
		cfg = c.cfg.MultipartConfig()
	}
	if cfg.PartSize < minPartSize {
		cfg.PartSize = minPartSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.UploadToken == "" {
		cfg.UploadToken = uuid.New().String()
	}

	// Read the first part up front to detect small sources.
	first := make([]byte, cfg.PartSize)
	n, err := io.ReadFull(src, first)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Stat{}, &StorageError{Op: "multipart_upload", Key: key, Err: err}
	}
	if int64(n) < cfg.PartSize {
		c.logger.Debug("source below part size, falling back to single upload",
			"key", key, "size", n)
		return c.UploadBytes(ctx, key, first[:n], opts)
	}

	uploadID, err := c.CreateMultipart(ctx, key, opts)
	if err != nil {
		return Stat{}, err
	}
	c.logger.Info("multipart upload started",
		"key", key, "upload_id", uploadID, "upload_token", cfg.UploadToken,
		"part_size", cfg.PartSize, "concurrency", cfg.Concurrency)

	parts, err := c.uploadParts(ctx, key, uploadID, first, src, cfg)
	if err != nil {
		if abortErr := c.AbortMultipart(ctx, key, uploadID); abortErr != nil {
			c.logger.Warn("failed to abort multipart upload",
				"key", key, "upload_id", uploadID, "error", abortErr)
		}
		return Stat{}, err
	}

	stat, err := c.CompleteMultipart(ctx, key, uploadID, parts)
	if err != nil {
		return Stat{}, err
	}
	c.logger.Info("multipart upload completed",
		"key", key, "upload_id", uploadID, "parts", len(parts), "size", stat.Size)
	return stat, nil
}

type partTask struct {
	number int32
	data   []byte
}

type partResult struct {
	part PartETag
	err  error
}

// uploadParts feeds chunks of src (first being the already-read first
// part) to a pool of upload workers.
func (c *Client) uploadParts(ctx context.Context, key, uploadID string, first []byte, src io.Reader, cfg *MultipartConfig) ([]PartETag, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan partTask, cfg.Concurrency)
	results := make(chan partResult, cfg.Concurrency)
	readErr := make(chan error, 1)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				etag, err := c.UploadPart(ctx, key, uploadID, task.number, bytes.NewReader(task.data), int64(len(task.data)))
				select {
				case results <- partResult{part: PartETag{PartNumber: task.number, ETag: etag}, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(tasks)

		number := int32(1)
		send := func(data []byte) bool {
			select {
			case tasks <- partTask{number: number, data: data}:
				number++
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(first) {
			return
		}
		for {
			buf := make([]byte, cfg.PartSize)
			n, err := io.ReadFull(src, buf)
			if n > 0 && !send(buf[:n]) {
				return
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return
			}
			if err != nil {
				// A mid-stream read failure must abort the upload,
				// not complete it with whatever parts were read.
				readErr <- &StorageError{Op: "multipart_upload", Key: key, Err: err}
				cancel()
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var parts []PartETag
	for result := range results {
		if result.err != nil {
			cancel()
			// Drain so workers can exit.
			for range results {
			}
			select {
			case err := <-readErr:
				return nil, err
			default:
			}
			return nil, result.err
		}
		parts = append(parts, result.part)
	}
	select {
	case err := <-readErr:
		return nil, err
	default:
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	return parts, nil
}

// CreateMultipart initiates a multipart upload session.
func (c *Client) CreateMultipart(ctx context.Context, key string, opts *PutOptions) (string, error) {
	input := &awss3.CreateMultipartUploadInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.keys.BuildKey(key)),
	}
	if opts != nil {
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

	out, err := c.api.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", mapError(err, "create_multipart", key)
	}
	return aws.ToString(out.UploadId), nil
}

// UploadPart uploads one part of an open multipart session.
func (c *Client) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, part io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(part)
	if err != nil {
		return "", &StorageError{Op: "upload_part", Key: key, Err: err}
	}
	if size <= 0 {
		size = int64(len(data))
	}

	out, err := c.api.UploadPart(ctx, &awss3.UploadPartInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(c.keys.BuildKey(key)),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		ContentLength: aws.Int64(size),
		Body:          bytes.NewReader(data),
	})
	if err != nil {
		return "", mapError(err, "upload_part", key)
	}
	return aws.ToString(out.ETag), nil
}

// CompleteMultipart finalizes the session with the uploaded parts.
func (c *Client) CompleteMultipart(ctx context.Context, key, uploadID string, parts []PartETag) (Stat, error) {
	completed := make([]s3types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = s3types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		}
	}

	out, err := c.api.CompleteMultipartUpload(ctx, &awss3.CompleteMultipartUploadInput{
		Bucket:          aws.String(c.cfg.Bucket),
		Key:             aws.String(c.keys.BuildKey(key)),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return Stat{}, mapError(err, "complete_multipart", key)
	}

	stat, err := c.Head(ctx, key)
	if err != nil {
		stat = Stat{Key: key, ETag: aws.ToString(out.ETag)}
	}
	return stat, nil
}

// AbortMultipart cancels the session and discards uploaded parts.
func (c *Client) AbortMultipart(ctx context.Context, key, uploadID string) error {
	_, err := c.api.AbortMultipartUpload(ctx, &awss3.AbortMultipartUploadInput{
		Bucket:   aws.String(c.cfg.Bucket),
		Key:      aws.String(c.keys.BuildKey(key)),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return mapError(err, "abort_multipart", key)
	}
	return nil
}
