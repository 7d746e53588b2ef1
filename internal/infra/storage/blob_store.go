// Package storage implements the AssetStore on top of gocloud.dev blob
// buckets, so the same code serves local disk, S3 or GCS depending on the
// configured bucket URL.
package storage

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // register the file:// bucket driver

	"clipstream/config"
	"clipstream/internal/domain/service"
)

// Params defines the dependencies for the blob-backed asset store.
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

type blobStore struct {
	bucket        *blob.Bucket
	publicBaseURL string
	logger        *slog.Logger
}

// New opens the configured bucket and returns it as a service.AssetStore.
// The bucket is closed on shutdown through the fx lifecycle.
func New(params Params) (service.AssetStore, error) {
	if params.Config.Storage == nil || params.Config.Storage.BucketURL == "" {
		return nil, errors.New("storage bucket url must be provided")
	}

	bucket, err := blob.OpenBucket(context.Background(), params.Config.Storage.BucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open asset bucket")
	}

	params.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return bucket.Close()
		},
	})

	return NewWithBucket(bucket, params.Config.Storage.PublicBaseURL, params.Logger), nil
}

// NewWithBucket wraps an already opened bucket. Used by New and by tests.
func NewWithBucket(bucket *blob.Bucket, publicBaseURL string, logger *slog.Logger) service.AssetStore {
	return &blobStore{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Upload copies the local file into the bucket under a fresh object key and
// returns its public URL. The caller keeps ownership of the local file.
func (s *blobStore) Upload(ctx context.Context, localPath string) (*service.Asset, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open local file")
	}
	defer src.Close()

	key := objectKey(localPath)

	writer, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bucket writer")
	}

	if _, err := io.Copy(writer, src); err != nil {
		// Closing after a failed copy aborts the write where the driver supports it.
		_ = writer.Close()

		return nil, errors.Wrap(err, "failed to copy file to bucket")
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to commit object")
	}

	url := s.publicBaseURL + "/" + key
	if s.logger != nil {
		s.logger.Debug("Uploaded asset", slog.String("key", key), slog.String("url", url))
	}

	return &service.Asset{URL: url}, nil
}

// objectKey derives a collision-free bucket key, keeping the original
// extension so content type survives the round trip.
func objectKey(localPath string) string {
	return "uploads/" + uuid.New().String() + strings.ToLower(filepath.Ext(localPath))
}

func contentTypeFor(localPath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		return ct
	}

	return "application/octet-stream"
}
