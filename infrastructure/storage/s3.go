package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"hirenest/application/ports"
	pkgerrors "hirenest/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used by the store
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps blobs in one S3 bucket
type S3Store struct {
	client S3API
	refs   refFormat
	logger *zap.Logger
}

// NewS3Store creates a store for bucket. publicURL, when set, is the base
// URL objects are served from (a CloudFront distribution for example).
func NewS3Store(client S3API, bucket, publicURL string, logger *zap.Logger) *S3Store {
	return &S3Store{
		client: client,
		refs:   refFormat{scheme: "s3", bucket: bucket, publicURL: publicURL},
		logger: logger,
	}
}

var _ ports.BlobStore = (*S3Store)(nil)

// Put uploads data under key
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.refs.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", pkgerrors.NewExternalError("blob store", err)
	}

	s.logger.Debug("Blob uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return s.refs.ref(key), nil
}

// Get downloads the object behind ref
func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, string, error) {
	key, err := s.refs.key(ref)
	if err != nil {
		return nil, "", pkgerrors.NewValidationError(err.Error())
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.refs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", pkgerrors.NewNotFoundError("Blob")
		}
		return nil, "", pkgerrors.NewExternalError("blob store", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", pkgerrors.NewExternalError("blob store", err)
	}
	return data, aws.ToString(out.ContentType), nil
}

// Delete removes the object behind ref
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key, err := s.refs.key(ref)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.refs.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return pkgerrors.NewExternalError("blob store", err)
	}
	return nil
}
