package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed, "third request inside the window is rejected")

	allowed, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed, "keys are limited independently")

	now = now.Add(61 * time.Second)
	allowed, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed, "window slid past the earlier requests")

	require.NoError(t, limiter.Reset(ctx, "10.0.0.1"))
	allowed, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, 2, limiter.Limit())
	assert.Equal(t, time.Minute, limiter.Window())
}

type mockDynamoDB struct {
	mock.Mock
}

func (m *mockDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func TestDistributedRateLimiter(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		updateErr   error
		wantAllowed bool
		wantErr     bool
	}{
		{name: "under limit", wantAllowed: true},
		{name: "limit reached", updateErr: &types.ConditionalCheckFailedException{}, wantAllowed: false},
		{name: "table unavailable fails open", updateErr: errors.New("throttled"), wantAllowed: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockDynamoDB{}
			client.On("UpdateItem", ctx, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
				pk, ok := in.Key["PK"].(*types.AttributeValueMemberS)
				return ok && pk.Value == "RATELIMIT#AUTH#10.0.0.1" && *in.TableName == "hirenest"
			})).Return(&dynamodb.UpdateItemOutput{}, tt.updateErr)

			limiter := NewDistributedRateLimiter(client, "hirenest", 5, time.Minute, "AUTH")
			allowed, err := limiter.Allow(ctx, "10.0.0.1")

			assert.Equal(t, tt.wantAllowed, allowed)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestDistributedRateLimiter_NilClientAllows(t *testing.T) {
	limiter := NewDistributedRateLimiter(nil, "hirenest", 1, time.Minute, "AUTH")

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, limiter.Reset(context.Background(), "10.0.0.1"))
}
