package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesdash/internal/upstream"
)

func TestSnapshotRoundTripOnDirectory(t *testing.T) {
	dir := t.TempDir()
	objects, err := NewDirStorage(dir)
	require.NoError(t, err)
	store := NewSnapshotStore(objects)
	ctx := context.Background()

	snap := upstream.NewSnapshot()
	snap.CapturedAt = time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	snap.Collections[upstream.CollectionInvoices] = []json.RawMessage{json.RawMessage(`{"id":1}`)}
	snap.Collections[upstream.CollectionBrands] = nil

	require.NoError(t, store.Save(ctx, "jan-05", snap))
	assert.FileExists(t, filepath.Join(dir, "snapshots", "jan-05", "manifest.json"))
	assert.FileExists(t, filepath.Join(dir, "snapshots", "jan-05", "invoices.json"))

	got, err := store.Load(ctx, "jan-05")
	require.NoError(t, err)
	assert.True(t, snap.CapturedAt.Equal(got.CapturedAt))
	assert.JSONEq(t, `{"id":1}`, string(got.Rows(upstream.CollectionInvoices)[0]))
	assert.Empty(t, got.Rows(upstream.CollectionBrands))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jan-05"}, names)
}

func TestSnapshotLoadMissing(t *testing.T) {
	objects, err := NewDirStorage(t.TempDir())
	require.NoError(t, err)

	_, err = NewSnapshotStore(objects).Load(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSnapshotRejectsBadNames(t *testing.T) {
	objects, err := NewDirStorage(t.TempDir())
	require.NoError(t, err)
	store := NewSnapshotStore(objects)

	for _, name := range []string{"", "../etc", "a/b", ".hidden"} {
		assert.Error(t, store.Save(context.Background(), name, upstream.NewSnapshot()), name)
	}
}

func TestDirStorageRejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	objects, err := NewDirStorage(filepath.Join(dir, "root"))
	require.NoError(t, err)

	assert.Error(t, objects.UploadObject(context.Background(), "../outside.json", []byte("{}")))
	_, statErr := os.Stat(filepath.Join(dir, "outside.json"))
	assert.True(t, os.IsNotExist(statErr))

	list, err := objects.ListObjects(context.Background(), "")
	require.NoError(t, err, "missing root lists as empty")
	assert.Empty(t, list)
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		host     string
		secure   bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://minio:9000", true, "minio:9000", false},
		{"minio:9000", true, "minio:9000", true},
		{"//minio:9000", false, "minio:9000", false},
	}
	for _, tt := range tests {
		host, secure := splitEndpoint(tt.endpoint, tt.useSSL)
		assert.Equal(t, tt.host, host, tt.endpoint)
		assert.Equal(t, tt.secure, secure, tt.endpoint)
	}
}

func TestNewS3ClientValidatesConfig(t *testing.T) {
	_, err := NewS3Client(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Client(S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	c, err := NewS3Client(S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b", Bucket: "snaps"})
	require.NoError(t, err)
	assert.Equal(t, "snaps", c.bucket)
}
