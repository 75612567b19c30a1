package handlers

import (
	"context"
	"fmt"

	"hirenest/application/ports"
	"hirenest/application/queries"
	"hirenest/application/queries/bus"
	"hirenest/domain/core/entities"
	pkgerrors "hirenest/pkg/errors"

	"go.uber.org/zap"
)

func unexpectedQuery(q interface{}) error {
	return pkgerrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
}

// ListIncomingRequestsHandler returns pending requests with sender profiles
type ListIncomingRequestsHandler struct {
	users       ports.UserRepository
	connections ports.ConnectionRepository
	logger      *zap.Logger
}

// NewListIncomingRequestsHandler creates a new handler instance
func NewListIncomingRequestsHandler(users ports.UserRepository, connections ports.ConnectionRepository, logger *zap.Logger) *ListIncomingRequestsHandler {
	return &ListIncomingRequestsHandler{users: users, connections: connections, logger: logger}
}

// Handle returns []entities.IncomingRequest, newest first
func (h *ListIncomingRequestsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListIncomingRequestsQuery)
	if !ok {
		return nil, unexpectedQuery(q)
	}

	requests, err := h.connections.ListIncoming(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]string, 0, len(requests))
	for _, req := range requests {
		senderIDs = append(senderIDs, req.SenderID())
	}
	senders, err := h.users.GetByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	result := make([]entities.IncomingRequest, 0, len(requests))
	for _, req := range requests {
		sender, ok := byID[req.SenderID()]
		if !ok {
			h.logger.Warn("Skipping request from unknown sender",
				zap.String("requestID", req.ID()),
				zap.String("senderID", req.SenderID()),
			)
			continue
		}
		result = append(result, entities.IncomingRequest{
			ID:        req.ID(),
			Sender:    sender.ConnectionSummary(),
			Recipient: req.RecipientID(),
			Status:    req.Status(),
			CreatedAt: req.CreatedAt(),
		})
	}
	return result, nil
}

// ListConnectionsHandler returns a user's connections
type ListConnectionsHandler struct {
	users ports.UserRepository
}

// NewListConnectionsHandler creates a new handler instance
func NewListConnectionsHandler(users ports.UserRepository) *ListConnectionsHandler {
	return &ListConnectionsHandler{users: users}
}

// Handle returns []entities.ConnectionSummary
func (h *ListConnectionsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListConnectionsQuery)
	if !ok {
		return nil, unexpectedQuery(q)
	}

	user, err := h.users.GetByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	connected, err := h.users.GetByIDs(ctx, user.Connections)
	if err != nil {
		return nil, err
	}

	result := make([]entities.ConnectionSummary, 0, len(connected))
	for _, u := range connected {
		result = append(result, u.ConnectionSummary())
	}
	return result, nil
}

// GetConnectionStatusHandler resolves relationship status
type GetConnectionStatusHandler struct {
	users       ports.UserRepository
	connections ports.ConnectionRepository
}

// NewGetConnectionStatusHandler creates a new handler instance
func NewGetConnectionStatusHandler(users ports.UserRepository, connections ports.ConnectionRepository) *GetConnectionStatusHandler {
	return &GetConnectionStatusHandler{users: users, connections: connections}
}

// Handle returns entities.ConnectionStatusView. An existing connection wins
// over any pending request; a request received from the target is reported
// before one sent by the viewer so its id stays reachable.
func (h *GetConnectionStatusHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetConnectionStatusQuery)
	if !ok {
		return nil, unexpectedQuery(q)
	}

	viewer, err := h.users.GetByID(ctx, query.ViewerID)
	if err != nil {
		return nil, err
	}
	if viewer.IsConnectedTo(query.TargetID) {
		return entities.ConnectionStatusView{Status: entities.RelationshipConnected}, nil
	}

	received, err := h.connections.FindPending(ctx, query.TargetID, query.ViewerID)
	if err != nil {
		return nil, err
	}
	if received != nil {
		return entities.ConnectionStatusView{Status: entities.RelationshipReceived, RequestID: received.ID()}, nil
	}

	sent, err := h.connections.FindPending(ctx, query.ViewerID, query.TargetID)
	if err != nil {
		return nil, err
	}
	if sent != nil {
		return entities.ConnectionStatusView{Status: entities.RelationshipPending}, nil
	}

	return entities.ConnectionStatusView{Status: entities.RelationshipNotConnected}, nil
}

var (
	_ bus.QueryHandler = (*ListIncomingRequestsHandler)(nil)
	_ bus.QueryHandler = (*ListConnectionsHandler)(nil)
	_ bus.QueryHandler = (*GetConnectionStatusHandler)(nil)
)

// RegisterConnectionHandlers registers every connection query on b
func RegisterConnectionHandlers(
	b *bus.QueryBus,
	incoming *ListIncomingRequestsHandler,
	connections *ListConnectionsHandler,
	status *GetConnectionStatusHandler,
) error {
	if err := b.Register(queries.ListIncomingRequestsQuery{}, incoming); err != nil {
		return err
	}
	if err := b.Register(queries.ListConnectionsQuery{}, connections); err != nil {
		return err
	}
	return b.Register(queries.GetConnectionStatusQuery{}, status)
}
