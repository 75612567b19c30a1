package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is the subset of the DynamoDB API used by the repositories
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var (
	_ dynamodb.QueryAPIClient = Client(nil)
	_ dynamodb.ScanAPIClient  = Client(nil)
)

// Table describes the single table that holds every entity. GSI1 is a sparse
// index keyed by GSI1PK/GSI1SK used for per-owner listings.
type Table struct {
	Name      string
	GSI1Index string
}

// Entity type markers
const (
	entityUser         = "USER"
	entityClaim        = "CLAIM"
	entityRequest      = "CONNECTION_REQUEST"
	entityPendingPair  = "PENDING_PAIR"
	entityPost         = "POST"
	entityNotification = "NOTIFICATION"
)

// Key builders
func userPK(id string) string           { return "USER#" + id }
func usernamePK(username string) string { return "USERNAME#" + strings.ToLower(username) }
func emailPK(email string) string       { return "EMAIL#" + strings.ToLower(email) }
func requestPK(id string) string        { return "CONNREQ#" + id }
func pendingPK(senderID, recipientID string) string {
	return fmt.Sprintf("PENDING#%s#%s", senderID, recipientID)
}
func incomingGSI(recipientID string) string { return "INCOMING#" + recipientID }
func postPK(id string) string               { return "POST#" + id }
func authorGSI(authorID string) string      { return "AUTHOR#" + authorID }
func notificationPK(id string) string       { return "NOTIF#" + id }
func recipientGSI(recipientID string) string {
	return "NOTIFS#" + recipientID
}

const (
	skProfile      = "PROFILE"
	skClaim        = "CLAIM"
	skRequest      = "REQUEST"
	skMarker       = "MARKER"
	skPost         = "POST"
	skNotification = "NOTIFICATION"
)

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// cancellationReasons returns the per-item cancellation codes of a failed
// transaction, or nil when err is not a cancellation.
func cancellationReasons(err error) []string {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil
	}
	codes := make([]string, len(tce.CancellationReasons))
	for i, reason := range tce.CancellationReasons {
		codes[i] = aws.ToString(reason.Code)
	}
	return codes
}

// conditionFailedAt reports whether the transaction item at index i failed
// its condition check.
func conditionFailedAt(codes []string, i int) bool {
	return i < len(codes) && codes[i] == "ConditionalCheckFailed"
}

func isConditionalCheckFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// Ping reads a key that never exists to check the table is reachable
func Ping(ctx context.Context, client Client, table Table) error {
	_, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table.Name),
		Key:       itemKey("HEALTH#probe", "PROBE"),
	})
	if err != nil {
		return fmt.Errorf("dynamodb table %s: %w", table.Name, err)
	}
	return nil
}
