package miniox

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *minio.Client {
	t.Helper()

	server := httptest.NewServer(gofakes3.New(s3mem.New()).Server())
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return client
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	require.NoError(t, EnsureBucket(ctx, client, "bucket"))
	// Idempotent.
	require.NoError(t, EnsureBucket(ctx, client, "bucket"))

	exists, err := client.BucketExists(ctx, "bucket")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUploadAndDownloadBucket(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	require.NoError(t, EnsureBucket(ctx, client, "bucket"))

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.txt"), []byte("bbb"), 0o644))

	require.NoError(t, UploadObject(ctx, client, "bucket", "docs/a.txt", filepath.Join(src, "a.txt")))
	require.NoError(t, UploadObject(ctx, client, "bucket", "docs/b.txt", filepath.Join(src, "b.txt")))

	dst := t.TempDir()
	require.NoError(t, DownloadBucket(ctx, client, "bucket", dst))

	got, err := os.ReadFile(filepath.Join(dst, "docs", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("aaa"), got)

	got, err = os.ReadFile(filepath.Join(dst, "docs", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bbb"), got)
}

func TestRemoveBucket(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	require.NoError(t, EnsureBucket(ctx, client, "bucket"))

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, UploadObject(ctx, client, "bucket", "f.txt", path))

	require.NoError(t, RemoveBucket(ctx, client, "bucket"))

	exists, err := client.BucketExists(ctx, "bucket")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient(&Config{})
	assert.Error(t, err)
}
