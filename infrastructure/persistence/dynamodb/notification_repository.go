package dynamodb

import (
	"context"
	"fmt"

	"hirenest/application/ports"
	"hirenest/domain/core/entities"
	pkgerrors "hirenest/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// NotificationRepository implements ports.NotificationRepository
type NotificationRepository struct {
	client Client
	table  Table
	logger *zap.Logger
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(client Client, table Table, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{client: client, table: table, logger: logger}
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

type notificationItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
	EntityType     string `dynamodbav:"EntityType"`
	NotificationID string `dynamodbav:"NotificationID"`
	RecipientID    string `dynamodbav:"RecipientID"`
	Type           string `dynamodbav:"Type"`
	RelatedUserID  string `dynamodbav:"RelatedUserID,omitempty"`
	RelatedPostID  string `dynamodbav:"RelatedPostID,omitempty"`
	Read           bool   `dynamodbav:"Read"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
}

func toNotificationItem(n *entities.Notification) notificationItem {
	return notificationItem{
		PK:             notificationPK(n.ID),
		SK:             skNotification,
		GSI1PK:         recipientGSI(n.RecipientID),
		GSI1SK:         formatTime(n.CreatedAt) + "#" + n.ID,
		EntityType:     entityNotification,
		NotificationID: n.ID,
		RecipientID:    n.RecipientID,
		Type:           string(n.Type),
		RelatedUserID:  n.RelatedUserID,
		RelatedPostID:  n.RelatedPostID,
		Read:           n.Read,
		CreatedAt:      formatTime(n.CreatedAt),
	}
}

func (i notificationItem) toEntity() *entities.Notification {
	return &entities.Notification{
		ID:            i.NotificationID,
		RecipientID:   i.RecipientID,
		Type:          entities.NotificationType(i.Type),
		RelatedUserID: i.RelatedUserID,
		RelatedPostID: i.RelatedPostID,
		Read:          i.Read,
		CreatedAt:     parseTime(i.CreatedAt),
	}
}

// Create stores a notification
func (r *NotificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	av, err := attributevalue.MarshalMap(toNotificationItem(notification))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table.Name),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("create notification", err)
	}
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*entities.Notification, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(recipientGSI(recipientID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.Name),
		IndexName:                 aws.String(r.table.GSI1Index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	notifications := make([]*entities.Notification, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list notifications", err)
		}

		var items []notificationItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notifications: %w", err)
		}
		for _, item := range items {
			notifications = append(notifications, item.toEntity())
		}
	}
	return notifications, nil
}

// ownedBy is the condition shared by MarkRead and Delete. A notification
// owned by someone else is reported as absent.
func ownedBy(recipientID string) expression.ConditionBuilder {
	return expression.AttributeExists(expression.Name("PK")).
		And(expression.Name("RecipientID").Equal(expression.Value(recipientID)))
}

// MarkRead sets the read flag and returns the updated notification
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) (*entities.Notification, error) {
	update := expression.Set(expression.Name("Read"), expression.Value(true))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(ownedBy(recipientID)).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table.Name),
		Key:                       itemKey(notificationPK(id), skNotification),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewNotFoundError("Notification")
		}
		return nil, pkgerrors.NewDatabaseError("mark notification read", err)
	}

	var item notificationItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return item.toEntity(), nil
}

// Delete removes the notification when it belongs to recipientID
func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID string) error {
	expr, err := expression.NewBuilder().WithCondition(ownedBy(recipientID)).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.table.Name),
		Key:                       itemKey(notificationPK(id), skNotification),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewNotFoundError("Notification")
		}
		return pkgerrors.NewDatabaseError("delete notification", err)
	}
	return nil
}
