package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBUpdater is the slice of the DynamoDB client the limiter needs.
type DynamoDBUpdater interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DistributedRateLimiter implements fixed-window rate limiting with DynamoDB
// as the counter store, so limits hold across Lambda instances. Counter items
// share the application table and expire through its TTL attribute.
type DistributedRateLimiter struct {
	client    DynamoDBUpdater
	tableName string
	limit     int
	window    time.Duration
	keyPrefix string
}

// NewDistributedRateLimiter creates a distributed rate limiter
func NewDistributedRateLimiter(client DynamoDBUpdater, tableName string, limit int, window time.Duration, keyPrefix string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		tableName: tableName,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
	}
}

func (r *DistributedRateLimiter) key(key string, windowStart time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("RATELIMIT#%s#%s", r.keyPrefix, key)},
		"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("WINDOW#%d", windowStart.Unix())},
	}
}

// Allow atomically increments the window counter unless it already reached
// the limit.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	windowStart := time.Now().Truncate(r.window)
	windowEnd := windowStart.Add(r.window)

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(key, windowStart),
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :incr, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "RequestCount",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":incr":  &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: strconv.Itoa(r.limit)},
			":ttl":   &types.AttributeValueMemberN{Value: strconv.FormatInt(windowEnd.Add(time.Hour).Unix(), 10)},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		// Fail open so a throttled table does not lock users out.
		return true, fmt.Errorf("rate limiter error (failing open): %w", err)
	}

	return true, nil
}

// Reset clears the current window for a key
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(key, time.Now().Truncate(r.window)),
	})
	return err
}

// Limit returns the configured request count per window.
func (r *DistributedRateLimiter) Limit() int {
	return r.limit
}

// Window returns the configured window size.
func (r *DistributedRateLimiter) Window() time.Duration {
	return r.window
}
