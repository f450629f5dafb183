// Package s3 provides an opinionated object storage client for AWS S3
// and S3-compatible services (MinIO, LocalStack). It covers uploads,
// downloads, listing, multipart uploads, presigned URLs and directory
// synchronization.
package s3

import (
	"io"
	"time"
)

// PutOptions configures upload operations.
type PutOptions struct {
	// ContentType is the MIME type of the object.
	ContentType string

	// Metadata contains user-defined key-value pairs.
	Metadata map[string]string

	// CacheControl sets the Cache-Control header.
	CacheControl string

	// ContentEncoding sets the Content-Encoding header.
	ContentEncoding string

	// IfNotExists fails the upload with ErrConflict when the key
	// already exists.
	IfNotExists bool
}

// Stat contains object metadata.
type Stat struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	Metadata     map[string]string
	LastModified time.Time
}

// ListOptions configures listings.
type ListOptions struct {
	// Prefix filters objects by key prefix.
	Prefix string

	// Delimiter groups keys into common prefixes ("/" for folders).
	Delimiter string

	// PageSize caps objects per page (default 1000).
	PageSize int32

	// ContinuationToken resumes a previous listing.
	ContinuationToken string
}

// ListPage is one page of listing results.
type ListPage struct {
	Keys           []Stat
	CommonPrefixes []string
	NextToken      string
	IsTruncated    bool
}

// MultipartConfig tunes chunked uploads.
type MultipartConfig struct {
	// PartSize is the size of each part in bytes. S3 requires at least
	// 5MB for every part but the last.
	PartSize int64

	// Concurrency is the number of parts uploaded in parallel.
	Concurrency int

	// UploadToken identifies a retried upload; generated when empty.
	UploadToken string
}

// PresignOptions configures presigned URL generation.
type PresignOptions struct {
	// Expiry is the URL lifetime (default 15m, capped at the S3 limit
	// of 7 days).
	Expiry time.Duration

	// ContentType restricts or hints the content type.
	ContentType string

	// Metadata is attached to presigned uploads.
	Metadata map[string]string
}

// Reader is a streaming object body that knows its total size.
type Reader interface {
	io.ReadCloser

	// Size returns the total object size, -1 if unknown.
	Size() int64
}

type sizedReader struct {
	io.ReadCloser
	size int64
}

func (r *sizedReader) Size() int64 { return r.size }

// PartETag identifies a completed multipart part.
type PartETag struct {
	PartNumber int32
	ETag       string
}
