package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"hirenest/application/ports"
	pkgerrors "hirenest/pkg/errors"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSStore keeps blobs in one Google Cloud Storage bucket
type GCSStore struct {
	client *storage.Client
	refs   refFormat
	logger *zap.Logger
}

// NewGCSClient creates a storage client. An empty credentialsFile uses the
// application default credentials.
func NewGCSClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return client, nil
}

// NewGCSStore creates a store for bucket
func NewGCSStore(client *storage.Client, bucket, publicURL string, logger *zap.Logger) *GCSStore {
	return &GCSStore{
		client: client,
		refs:   refFormat{scheme: "gs", bucket: bucket, publicURL: publicURL},
		logger: logger,
	}
}

var _ ports.BlobStore = (*GCSStore)(nil)

// Put uploads data under key
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	writer := s.client.Bucket(s.refs.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", pkgerrors.NewExternalError("blob store", fmt.Errorf("failed to write GCS object %s: %w", key, err))
	}
	if err := writer.Close(); err != nil {
		return "", pkgerrors.NewExternalError("blob store", fmt.Errorf("failed to close GCS writer for %s: %w", key, err))
	}

	s.logger.Debug("Blob uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return s.refs.ref(key), nil
}

// Get downloads the object behind ref
func (s *GCSStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	key, err := s.refs.key(ref)
	if err != nil {
		return nil, "", pkgerrors.NewValidationError(err.Error())
	}

	reader, err := s.client.Bucket(s.refs.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", pkgerrors.NewNotFoundError("Blob")
		}
		return nil, "", pkgerrors.NewExternalError("blob store", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", pkgerrors.NewExternalError("blob store", err)
	}
	return data, reader.Attrs.ContentType, nil
}

// Delete removes the object behind ref
func (s *GCSStore) Delete(ctx context.Context, ref string) error {
	key, err := s.refs.key(ref)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	if err := s.client.Bucket(s.refs.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return pkgerrors.NewExternalError("blob store", err)
	}
	return nil
}
