package s3http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Tracktor/tracktolib/s3"
)

// MultipartUpload is an open multipart session whose parts travel
// through presigned URLs.
type MultipartUpload struct {
	session  *Session
	key      string
	uploadID string
	parts    []s3.PartETag
}

// StartMultipart initiates a session for key.
func (s *Session) StartMultipart(ctx context.Context, key string, opts *s3.PutOptions) (*MultipartUpload, error) {
	uploadID, err := s.client.CreateMultipart(ctx, key, opts)
	if err != nil {
		return nil, err
	}
	return &MultipartUpload{session: s, key: key, uploadID: uploadID}, nil
}

// UploadID returns the S3 upload identifier of the session.
func (m *MultipartUpload) UploadID() string { return m.uploadID }

// UploadPart PUTs one part through a presigned URL and records its
// ETag. Parts must be uploaded in order starting at 1.
func (m *MultipartUpload) UploadPart(ctx context.Context, data []byte) error {
	partNumber := int32(len(m.parts) + 1)
	url, err := m.session.client.PresignUploadPart(ctx, m.key, m.uploadID, partNumber, nil)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return &s3.StorageError{Op: "http_upload_part", Key: m.key, Err: err}
	}
	req.ContentLength = int64(len(data))

	resp, err := m.session.http.Do(req)
	if err != nil {
		return &s3.StorageError{Op: "http_upload_part", Key: m.key, Err: err}
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "http_upload_part", m.key); err != nil {
		return err
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return &s3.StorageError{
			Op:  "http_upload_part",
			Key: m.key,
			Err: fmt.Errorf("no ETag in part %d response", partNumber),
		}
	}
	m.parts = append(m.parts, s3.PartETag{PartNumber: partNumber, ETag: etag})
	return nil
}

// Complete finalizes the session.
func (m *MultipartUpload) Complete(ctx context.Context) (s3.Stat, error) {
	return m.session.client.CompleteMultipart(ctx, m.key, m.uploadID, m.parts)
}

// Abort cancels the session and discards uploaded parts.
func (m *MultipartUpload) Abort(ctx context.Context) error {
	return m.session.client.AbortMultipart(ctx, m.key, m.uploadID)
}

// minPartSize is the S3 lower bound for non-final multipart parts.
const minPartSize = 5 << 20

// FileUpload streams a local file to key. Large files go through a
// multipart session; a source smaller than the minimum part size is
// sent as one plain presigned PUT, since S3 rejects multipart uploads
// whose only part is undersized.
func (s *Session) FileUpload(ctx context.Context, key, path string, partSize int64, contentType string) (err error) {
	if partSize < minPartSize {
		partSize = minPartSize
	}

	f, err := os.Open(path)
	if err != nil {
		return &s3.StorageError{Op: "file_upload", Key: key, Err: err}
	}
	defer f.Close()

	return s.uploadStream(ctx, key, f, partSize, contentType)
}

func (s *Session) uploadStream(ctx context.Context, key string, src io.Reader, partSize int64, contentType string) (err error) {
	first := make([]byte, partSize)
	n, err := io.ReadFull(src, first)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return &s3.StorageError{Op: "file_upload", Key: key, Err: err}
	}
	if int64(n) < partSize {
		return s.PutObject(ctx, key, first[:n], contentType)
	}

	var opts *s3.PutOptions
	if contentType != "" {
		opts = &s3.PutOptions{ContentType: contentType}
	}
	upload, err := s.StartMultipart(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if abortErr := upload.Abort(ctx); abortErr != nil {
				err = fmt.Errorf("%w (abort failed: %v)", err, abortErr)
			}
		}
	}()

	if err = upload.UploadPart(ctx, first[:n]); err != nil {
		return err
	}
	buf := make([]byte, partSize)
	for {
		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			if err = upload.UploadPart(ctx, buf[:n]); err != nil {
				return err
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			// A mid-stream read failure must abort the upload, not
			// complete it with whatever parts were read.
			err = &s3.StorageError{Op: "file_upload", Key: key, Err: readErr}
			return err
		}
	}

	_, err = upload.Complete(ctx)
	return err
}
