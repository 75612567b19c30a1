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

// ConnectionRepository implements ports.ConnectionRepository.
//
// A pending request is accompanied by a pair marker item keyed by the ordered
// (sender, recipient) pair. The marker is written with a conditional put so
// at most one pending request exists per pair, and it is removed in the same
// transaction that settles the request.
type ConnectionRepository struct {
	client Client
	table  Table
	logger *zap.Logger
}

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(client Client, table Table, logger *zap.Logger) *ConnectionRepository {
	return &ConnectionRepository{client: client, table: table, logger: logger}
}

var _ ports.ConnectionRepository = (*ConnectionRepository)(nil)

type requestItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK      string `dynamodbav:"GSI1SK,omitempty"`
	EntityType  string `dynamodbav:"EntityType"`
	RequestID   string `dynamodbav:"RequestID"`
	SenderID    string `dynamodbav:"SenderID"`
	RecipientID string `dynamodbav:"RecipientID"`
	Status      string `dynamodbav:"Status"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

type pendingPairItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	RequestID  string `dynamodbav:"RequestID"`
}

func toRequestItem(req *entities.ConnectionRequest) requestItem {
	item := requestItem{
		PK:          requestPK(req.ID()),
		SK:          skRequest,
		EntityType:  entityRequest,
		RequestID:   req.ID(),
		SenderID:    req.SenderID(),
		RecipientID: req.RecipientID(),
		Status:      string(req.Status()),
		CreatedAt:   formatTime(req.CreatedAt()),
		UpdatedAt:   formatTime(req.UpdatedAt()),
	}
	// Only pending requests are projected into the incoming index
	if req.IsPending() {
		item.GSI1PK = incomingGSI(req.RecipientID())
		item.GSI1SK = formatTime(req.CreatedAt())
	}
	return item
}

func (i requestItem) toEntity() *entities.ConnectionRequest {
	return entities.ReconstructConnectionRequest(
		i.RequestID,
		i.SenderID,
		i.RecipientID,
		entities.ConnectionStatus(i.Status),
		parseTime(i.CreatedAt),
		parseTime(i.UpdatedAt),
	)
}

// CreateRequest writes the request and its pair marker atomically. When the
// marker already exists the pending request it points to is returned.
func (r *ConnectionRepository) CreateRequest(ctx context.Context, req *entities.ConnectionRequest) (*entities.ConnectionRequest, bool, error) {
	reqAV, err := attributevalue.MarshalMap(toRequestItem(req))
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal connection request: %w", err)
	}
	markerAV, err := attributevalue.MarshalMap(pendingPairItem{
		PK:         pendingPK(req.SenderID(), req.RecipientID()),
		SK:         skMarker,
		EntityType: entityPendingPair,
		RequestID:  req.ID(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal pair marker: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.table.Name),
				Item:                markerAV,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.table.Name),
				Item:                reqAV,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
		},
	})
	if err != nil {
		if conditionFailedAt(cancellationReasons(err), 0) {
			existing, findErr := r.FindPending(ctx, req.SenderID(), req.RecipientID())
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, false, nil
			}
			// The marker vanished between the write and the read; the
			// request it guarded was settled concurrently.
			return nil, false, pkgerrors.NewConflictError("connection request changed concurrently").
				WithCode(ports.CodeConcurrentModification)
		}
		return nil, false, pkgerrors.NewDatabaseError("create connection request", err)
	}

	r.logger.Debug("Connection request created",
		zap.String("requestID", req.ID()),
		zap.String("senderID", req.SenderID()),
		zap.String("recipientID", req.RecipientID()))
	return req, true, nil
}

// GetRequest retrieves a request by id
func (r *ConnectionRepository) GetRequest(ctx context.Context, id string) (*entities.ConnectionRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table.Name),
		Key:            itemKey(requestPK(id), skRequest),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get connection request", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("Connection request")
	}

	var item requestItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection request: %w", err)
	}
	return item.toEntity(), nil
}

// FindPending follows the pair marker to the pending request, if any
func (r *ConnectionRepository) FindPending(ctx context.Context, senderID, recipientID string) (*entities.ConnectionRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table.Name),
		Key:            itemKey(pendingPK(senderID, recipientID), skMarker),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get pair marker", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var marker pendingPairItem
	if err := attributevalue.UnmarshalMap(out.Item, &marker); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pair marker: %w", err)
	}

	req, err := r.GetRequest(ctx, marker.RequestID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !req.IsPending() {
		return nil, nil
	}
	return req, nil
}

// ListIncoming queries the sparse incoming index, newest first
func (r *ConnectionRepository) ListIncoming(ctx context.Context, recipientID string) ([]*entities.ConnectionRequest, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(incomingGSI(recipientID)))
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

	requests := make([]*entities.ConnectionRequest, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list incoming requests", err)
		}

		var items []requestItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connection requests: %w", err)
		}
		for _, item := range items {
			if entities.ConnectionStatus(item.Status) == entities.ConnectionPending {
				requests = append(requests, item.toEntity())
			}
		}
	}
	return requests, nil
}

// settle builds the conditional status update shared by accept and reject.
// The GSI1 attributes are removed so the request leaves the incoming index.
func (r *ConnectionRepository) settle(req *entities.ConnectionRequest) (types.TransactWriteItem, error) {
	update := expression.
		Set(expression.Name("Status"), expression.Value(string(req.Status()))).
		Set(expression.Name("UpdatedAt"), expression.Value(formatTime(req.UpdatedAt()))).
		Remove(expression.Name("GSI1PK")).
		Remove(expression.Name("GSI1SK"))
	cond := expression.Name("Status").Equal(expression.Value(string(entities.ConnectionPending)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to build update expression: %w", err)
	}

	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(r.table.Name),
			Key:                       itemKey(requestPK(req.ID()), skRequest),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}, nil
}

func (r *ConnectionRepository) dropMarker(req *entities.ConnectionRequest) types.TransactWriteItem {
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(r.table.Name),
			Key:       itemKey(pendingPK(req.SenderID(), req.RecipientID()), skMarker),
		},
	}
}

// edgeChange adds or deletes otherID in the Connections set of userID
func (r *ConnectionRepository) edgeChange(action, userID, otherID string) types.TransactWriteItem {
	update := &types.Update{
		TableName:        aws.String(r.table.Name),
		Key:              itemKey(userPK(userID), skProfile),
		UpdateExpression: aws.String(action + " #conn :peer"),
		ExpressionAttributeNames: map[string]string{
			"#conn": "Connections",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":peer": &types.AttributeValueMemberSS{Value: []string{otherID}},
		},
		// UpdateItem would otherwise create a bare item for a missing user
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}
	return types.TransactWriteItem{Update: update}
}

// Accept settles the request, links both users, drops the pair marker and
// stores the sender's notification in one transaction.
func (r *ConnectionRepository) Accept(ctx context.Context, req *entities.ConnectionRequest, notification *entities.Notification) error {
	status, err := r.settle(req)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{
		status,
		r.edgeChange("ADD", req.SenderID(), req.RecipientID()),
		r.edgeChange("ADD", req.RecipientID(), req.SenderID()),
		r.dropMarker(req),
	}
	if notification != nil {
		av, err := attributevalue.MarshalMap(toNotificationItem(notification))
		if err != nil {
			return fmt.Errorf("failed to marshal notification: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(r.table.Name), Item: av},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		codes := cancellationReasons(err)
		switch {
		case conditionFailedAt(codes, 0):
			return pkgerrors.NewInvalidStateError("Connection request has already been processed")
		case conditionFailedAt(codes, 1), conditionFailedAt(codes, 2):
			return pkgerrors.NewNotFoundError("User")
		}
		return pkgerrors.NewDatabaseError("accept connection request", err)
	}

	r.logger.Debug("Connection request accepted", zap.String("requestID", req.ID()))
	return nil
}

// Reject settles the request and drops the pair marker
func (r *ConnectionRepository) Reject(ctx context.Context, req *entities.ConnectionRequest) error {
	status, err := r.settle(req)
	if err != nil {
		return err
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{status, r.dropMarker(req)},
	})
	if err != nil {
		if conditionFailedAt(cancellationReasons(err), 0) {
			return pkgerrors.NewInvalidStateError("Connection request has already been processed")
		}
		return pkgerrors.NewDatabaseError("reject connection request", err)
	}
	return nil
}

// RemoveConnection deletes each user from the other's Connections set.
// Deleting an absent element is a no-op, so the operation is idempotent.
func (r *ConnectionRepository) RemoveConnection(ctx context.Context, userID, otherID string) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			r.edgeChange("DELETE", userID, otherID),
			r.edgeChange("DELETE", otherID, userID),
		},
	})
	if err != nil {
		codes := cancellationReasons(err)
		if conditionFailedAt(codes, 0) || conditionFailedAt(codes, 1) {
			return pkgerrors.NewNotFoundError("User")
		}
		return pkgerrors.NewDatabaseError("remove connection", err)
	}
	return nil
}
