package s3http

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tracktor/tracktolib/s3"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()

	backend := s3mem.New()
	require.NoError(t, backend.CreateBucket("test-bucket"))

	server := httptest.NewServer(gofakes3.New(backend).Server())
	t.Cleanup(server.Close)

	cfg := s3.DefaultConfig()
	cfg.Bucket = "test-bucket"
	cfg.Endpoint = server.URL
	cfg.UsePathStyle = true
	cfg.AccessKey = "test"
	cfg.SecretKey = "test"

	client, err := s3.New(context.Background(), cfg)
	require.NoError(t, err)
	return NewSession(client, nil)
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	content := []byte("over presigned urls")
	require.NoError(t, session.PutObject(ctx, "a/b.txt", content, "text/plain"))

	got, err := session.GetObject(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	require.NoError(t, session.DeleteObject(ctx, "a/b.txt"))

	got, err = session.GetObject(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteObjects(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	require.NoError(t, session.PutObject(ctx, "x.txt", []byte("x"), ""))
	require.NoError(t, session.PutObject(ctx, "y.txt", []byte("y"), ""))

	failed, err := session.DeleteObjects(ctx, []string{"x.txt", "y.txt"})
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestMultipartSession(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	upload, err := session.StartMultipart(ctx, "big.bin", nil)
	require.NoError(t, err)
	require.NotEmpty(t, upload.UploadID())

	part1 := bytes.Repeat([]byte("a"), minPartSize)
	part2 := []byte("tail")
	require.NoError(t, upload.UploadPart(ctx, part1))
	require.NoError(t, upload.UploadPart(ctx, part2))

	stat, err := upload.Complete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(part1)+len(part2)), stat.Size)

	got, err := session.GetObject(ctx, "big.bin")
	require.NoError(t, err)
	assert.Equal(t, append(part1, part2...), got)
}

func TestMultipartAbort(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	upload, err := session.StartMultipart(ctx, "gone.bin", nil)
	require.NoError(t, err)
	require.NoError(t, upload.UploadPart(ctx, bytes.Repeat([]byte("a"), minPartSize)))
	require.NoError(t, upload.Abort(ctx))

	got, err := session.GetObject(ctx, "gone.bin")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileUploadSmall(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	path := filepath.Join(t.TempDir(), "small.txt")
	require.NoError(t, os.WriteFile(path, []byte("just a few bytes"), 0o644))

	require.NoError(t, session.FileUpload(ctx, "small.txt", path, 0, "text/plain"))

	got, err := session.GetObject(ctx, "small.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("just a few bytes"), got)
}

func TestFileUploadLarge(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	content := bytes.Repeat([]byte("0123456789abcdef"), (minPartSize+4096)/16)
	path := filepath.Join(t.TempDir(), "large.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	require.NoError(t, session.FileUpload(ctx, "large.bin", path, 0, ""))

	got, err := session.GetObject(ctx, "large.bin")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

type brokenReader struct {
	data []byte
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestUploadStreamReadError(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t)

	// One full part reads fine, then the source fails: the session must
	// abort instead of completing a truncated object.
	src := &brokenReader{data: bytes.Repeat([]byte("x"), minPartSize), err: errors.New("disk gone")}
	err := session.uploadStream(ctx, "broken.bin", src, minPartSize, "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk gone")

	got, err := session.GetObject(ctx, "broken.bin")
	require.NoError(t, err)
	assert.Nil(t, got)
}
