package s3

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	defaultPresignExpiry = 15 * time.Minute

	// maxPresignExpiry is the S3 hard limit for presigned URLs.
	maxPresignExpiry = 7 * 24 * time.Hour
)

func presignExpiry(opts *PresignOptions) time.Duration {
	if opts == nil || opts.Expiry <= 0 {
		return defaultPresignExpiry
	}
	if opts.Expiry > maxPresignExpiry {
		return maxPresignExpiry
	}
	return opts.Expiry
}

// PresignGet returns a presigned URL for downloading the object.
func (c *Client) PresignGet(ctx context.Context, key string, opts *PresignOptions) (string, error) {
	input := &awss3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.keys.BuildKey(key)),
	}
	if opts != nil && opts.ContentType != "" {
		input.ResponseContentType = aws.String(opts.ContentType)
	}

	req, err := c.presign.PresignGetObject(ctx, input, withExpiry(presignExpiry(opts)))
	if err != nil {
		return "", &StorageError{Op: "presign_get", Key: key, Err: err}
	}
	return req.URL, nil
}

// PresignPut returns a presigned URL for uploading the object.
func (c *Client) PresignPut(ctx context.Context, key string, opts *PresignOptions) (string, error) {
	input := &awss3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.keys.BuildKey(key)),
	}
	if opts != nil {
		if opts.ContentType != "" {
			input.ContentType = aws.String(opts.ContentType)
		}
		if len(opts.Metadata) > 0 {
			input.Metadata = opts.Metadata
		}
	}

	req, err := c.presign.PresignPutObject(ctx, input, withExpiry(presignExpiry(opts)))
	if err != nil {
		return "", &StorageError{Op: "presign_put", Key: key, Err: err}
	}
	return req.URL, nil
}

// PresignDelete returns a presigned URL for deleting the object.
func (c *Client) PresignDelete(ctx context.Context, key string, opts *PresignOptions) (string, error) {
	req, err := c.presign.PresignDeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.keys.BuildKey(key)),
	}, withExpiry(presignExpiry(opts)))
	if err != nil {
		return "", &StorageError{Op: "presign_delete", Key: key, Err: err}
	}
	return req.URL, nil
}

// PresignUploadPart returns a presigned URL for uploading one part of
// an open multipart session.
func (c *Client) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, opts *PresignOptions) (string, error) {
	req, err := c.presign.PresignUploadPart(ctx, &awss3.UploadPartInput{
		Bucket:     aws.String(c.cfg.Bucket),
		Key:        aws.String(c.keys.BuildKey(key)),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, withExpiry(presignExpiry(opts)))
	if err != nil {
		return "", &StorageError{Op: "presign_upload_part", Key: key, Err: err}
	}
	return req.URL, nil
}

func withExpiry(d time.Duration) func(*awss3.PresignOptions) {
	return func(o *awss3.PresignOptions) { o.Expires = d }
}
