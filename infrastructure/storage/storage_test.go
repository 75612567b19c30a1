package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	pkgerrors "hirenest/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRefFormat(t *testing.T) {
	private := refFormat{scheme: "s3", bucket: "media"}
	public := refFormat{scheme: "s3", bucket: "media", publicURL: "https://cdn.hirenest.dev/"}

	assert.Equal(t, "s3://media/posts/p1.png", private.ref("posts/p1.png"))
	assert.Equal(t, "https://cdn.hirenest.dev/posts/p1.png", public.ref("posts/p1.png"))

	tests := []struct {
		name    string
		format  refFormat
		ref     string
		wantKey string
		wantErr bool
	}{
		{name: "scheme ref", format: private, ref: "s3://media/posts/p1.png", wantKey: "posts/p1.png"},
		{name: "bare key", format: private, ref: "/posts/p1.png", wantKey: "posts/p1.png"},
		{name: "public url", format: public, ref: "https://cdn.hirenest.dev/users/u1/Jane%20Doe.pdf", wantKey: "users/u1/Jane Doe.pdf"},
		{name: "other bucket", format: private, ref: "s3://elsewhere/posts/p1.png", wantErr: true},
		{name: "other host", format: public, ref: "https://evil.example.com/posts/p1.png", wantErr: true},
		{name: "empty", format: private, ref: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := tt.format.key(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("image bytes")
	ref, err := store.Put(ctx, "posts/p1.png", data, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "mem://local/posts/p1.png", ref)

	data[0] = 'X'
	got, contentType, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), got, "store keeps its own copy")
	assert.Equal(t, "image/png", contentType)

	_, _, err = store.Get(ctx, "mem://local/missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, _, err = store.Get(ctx, "s3://media/posts/p1.png")
	assert.True(t, pkgerrors.IsValidation(err))

	require.NoError(t, store.Delete(ctx, ref))
	require.NoError(t, store.Delete(ctx, ref), "deleting twice is fine")
	assert.Equal(t, 0, store.Len())
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := &mockS3{}
	store := NewS3Store(client, "media", "https://cdn.hirenest.dev", zap.NewNop())

	client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "media" && aws.ToString(in.Key) == "posts/p1.png" &&
			aws.ToString(in.ContentType) == "image/png"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	ref, err := store.Put(ctx, "posts/p1.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.hirenest.dev/posts/p1.png", ref)

	client.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == "posts/p1.png"
	})).Return(&s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader([]byte("png"))),
		ContentType: aws.String("image/png"),
	}, nil).Once()

	data, contentType, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
	assert.Equal(t, "image/png", contentType)

	client.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == "posts/gone.png"
	})).Return(nil, &types.NoSuchKey{}).Once()

	_, _, err = store.Get(ctx, "s3://media/posts/gone.png")
	assert.True(t, pkgerrors.IsNotFound(err))

	client.On("DeleteObject", ctx, mock.Anything).Return(nil, errors.New("access denied")).Once()
	assert.True(t, pkgerrors.IsExternal(store.Delete(ctx, ref)))

	client.AssertExpectations(t)
}
