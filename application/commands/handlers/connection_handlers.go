package handlers

import (
	"context"
	"fmt"

	"hirenest/application/commands"
	"hirenest/application/commands/bus"
	"hirenest/application/ports"
	"hirenest/application/services"
	"hirenest/domain/core/entities"
	"hirenest/domain/events"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/observability"
	"hirenest/pkg/utils"

	"go.uber.org/zap"
)

// eventSource is an entity that records domain events until they are published
type eventSource interface {
	GetUncommittedEvents() []events.DomainEvent
	MarkEventsAsCommitted()
}

// publishEvents publishes after the write committed. A publish failure is
// logged and never fails the command.
func publishEvents(ctx context.Context, publisher ports.EventBus, logger *zap.Logger, source eventSource) {
	pending := source.GetUncommittedEvents()
	if len(pending) == 0 || publisher == nil {
		return
	}
	if err := publisher.PublishBatch(ctx, pending); err != nil {
		logger.Error("Failed to publish domain events",
			zap.Error(err),
			zap.Int("eventCount", len(pending)),
			zap.String("aggregateID", pending[0].GetAggregateID()),
		)
		return
	}
	source.MarkEventsAsCommitted()
}

// invalidateProfiles drops cached public profiles whose connection sets
// changed. Failures leave the entry to expire on its own.
func invalidateProfiles(ctx context.Context, profiles ports.Cache, logger *zap.Logger, users ...*entities.User) {
	if profiles == nil {
		return
	}
	for _, u := range users {
		if err := profiles.Delete(ctx, services.ProfileCacheKey(u.Username)); err != nil {
			logger.Warn("Failed to invalidate cached profile", zap.String("username", u.Username), zap.Error(err))
		}
	}
}

func unexpectedCommand(cmd interface{}) error {
	return pkgerrors.NewInternalError(fmt.Sprintf("unexpected command type %T", cmd))
}

// SendConnectionRequestHandler creates pending connection requests
type SendConnectionRequestHandler struct {
	users       ports.UserRepository
	connections ports.ConnectionRepository
	eventBus    ports.EventBus
	collector   *observability.Collector
	logger      *zap.Logger
}

// NewSendConnectionRequestHandler creates a new handler instance
func NewSendConnectionRequestHandler(
	users ports.UserRepository,
	connections ports.ConnectionRepository,
	eventBus ports.EventBus,
	collector *observability.Collector,
	logger *zap.Logger,
) *SendConnectionRequestHandler {
	return &SendConnectionRequestHandler{
		users:       users,
		connections: connections,
		eventBus:    eventBus,
		collector:   collector,
		logger:      logger,
	}
}

// Handle sends the request. A pending request for the same pair is returned
// as is, so repeated sends create nothing.
func (h *SendConnectionRequestHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.SendConnectionRequestCommand)
	if !ok {
		return nil, unexpectedCommand(c)
	}

	sender, err := h.users.GetByID(ctx, cmd.SenderID)
	if err != nil {
		return nil, err
	}
	if _, err := h.users.GetByID(ctx, cmd.RecipientID); err != nil {
		return nil, err
	}
	if sender.IsConnectedTo(cmd.RecipientID) {
		return nil, pkgerrors.NewValidationError("You are already connected").WithCode("ALREADY_CONNECTED")
	}

	req, err := entities.NewConnectionRequest(cmd.SenderID, cmd.RecipientID, utils.NowUTC())
	if err != nil {
		return nil, err
	}

	stored, created, err := h.connections.CreateRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if !created {
		h.logger.Debug("Connection request already pending",
			zap.String("requestID", stored.ID()),
			zap.String("senderID", cmd.SenderID),
			zap.String("recipientID", cmd.RecipientID),
		)
		return &commands.SendConnectionRequestResult{Request: stored}, nil
	}

	publishEvents(ctx, h.eventBus, h.logger, req)
	h.collector.RecordConnectionRequest()

	return &commands.SendConnectionRequestResult{Request: stored, Created: true}, nil
}

// AcceptConnectionRequestHandler accepts pending requests
type AcceptConnectionRequestHandler struct {
	users       ports.UserRepository
	connections ports.ConnectionRepository
	eventBus    ports.EventBus
	emails      ports.EmailQueue
	profiles    ports.Cache
	clientURL   string
	collector   *observability.Collector
	logger      *zap.Logger
}

// NewAcceptConnectionRequestHandler creates a new handler instance. profiles
// may be nil.
func NewAcceptConnectionRequestHandler(
	users ports.UserRepository,
	connections ports.ConnectionRepository,
	eventBus ports.EventBus,
	emails ports.EmailQueue,
	profiles ports.Cache,
	clientURL string,
	collector *observability.Collector,
	logger *zap.Logger,
) *AcceptConnectionRequestHandler {
	return &AcceptConnectionRequestHandler{
		users:       users,
		connections: connections,
		eventBus:    eventBus,
		emails:      emails,
		profiles:    profiles,
		clientURL:   clientURL,
		collector:   collector,
		logger:      logger,
	}
}

// Handle accepts the request. The status change, both connection edges and
// the sender's notification are written in one transaction.
func (h *AcceptConnectionRequestHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.AcceptConnectionRequestCommand)
	if !ok {
		return nil, unexpectedCommand(c)
	}

	req, err := h.connections.GetRequest(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	now := utils.NowUTC()
	if err := req.Accept(cmd.ActingUserID, now); err != nil {
		return nil, err
	}

	notification, err := entities.NewNotification(req.SenderID(), entities.NotificationConnectionAccepted, req.RecipientID(), "", now)
	if err != nil {
		return nil, err
	}
	if err := h.connections.Accept(ctx, req, notification); err != nil {
		return nil, err
	}

	publishEvents(ctx, h.eventBus, h.logger, req)
	h.collector.RecordConnectionAccepted()

	// The request has already succeeded, so every failure from here on is
	// only logged.
	users, err := h.users.GetByIDs(ctx, []string{req.SenderID(), req.RecipientID()})
	if err != nil || len(users) != 2 {
		h.logger.Warn("Could not load both parties after accept",
			zap.String("requestID", req.ID()),
			zap.Error(err),
		)
		return req, nil
	}
	invalidateProfiles(ctx, h.profiles, h.logger, users...)
	h.enqueueAcceptedEmail(req, users[0], users[1])

	return req, nil
}

// enqueueAcceptedEmail tells the sender their invitation was accepted
func (h *AcceptConnectionRequestHandler) enqueueAcceptedEmail(req *entities.ConnectionRequest, sender, recipient *entities.User) {
	if h.emails == nil {
		return
	}

	profileURL := fmt.Sprintf("%s/profile/%s", h.clientURL, recipient.Username)
	email, err := services.ConnectionAcceptedEmail(sender.Email, sender.Name, recipient.Name, profileURL)
	if err != nil {
		h.logger.Error("Failed to build connection accepted email", zap.String("requestID", req.ID()), zap.Error(err))
		return
	}
	h.emails.Enqueue(email)
}

// RejectConnectionRequestHandler rejects pending requests
type RejectConnectionRequestHandler struct {
	connections ports.ConnectionRepository
	eventBus    ports.EventBus
	logger      *zap.Logger
}

// NewRejectConnectionRequestHandler creates a new handler instance
func NewRejectConnectionRequestHandler(connections ports.ConnectionRepository, eventBus ports.EventBus, logger *zap.Logger) *RejectConnectionRequestHandler {
	return &RejectConnectionRequestHandler{
		connections: connections,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Handle rejects the request
func (h *RejectConnectionRequestHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.RejectConnectionRequestCommand)
	if !ok {
		return nil, unexpectedCommand(c)
	}

	req, err := h.connections.GetRequest(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if err := req.Reject(cmd.ActingUserID, utils.NowUTC()); err != nil {
		return nil, err
	}
	if err := h.connections.Reject(ctx, req); err != nil {
		return nil, err
	}

	publishEvents(ctx, h.eventBus, h.logger, req)
	return req, nil
}

// RemoveConnectionHandler drops connections
type RemoveConnectionHandler struct {
	users       ports.UserRepository
	connections ports.ConnectionRepository
	eventBus    ports.EventBus
	profiles    ports.Cache
	logger      *zap.Logger
}

// NewRemoveConnectionHandler creates a new handler instance. profiles may be nil.
func NewRemoveConnectionHandler(
	users ports.UserRepository,
	connections ports.ConnectionRepository,
	eventBus ports.EventBus,
	profiles ports.Cache,
	logger *zap.Logger,
) *RemoveConnectionHandler {
	return &RemoveConnectionHandler{
		users:       users,
		connections: connections,
		eventBus:    eventBus,
		profiles:    profiles,
		logger:      logger,
	}
}

// Handle removes both edges. Removing a connection that does not exist,
// including one to an unknown user, succeeds without changes.
func (h *RemoveConnectionHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.RemoveConnectionCommand)
	if !ok {
		return nil, unexpectedCommand(c)
	}

	user, err := h.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	other, err := h.users.GetByID(ctx, cmd.OtherID)
	if pkgerrors.IsNotFound(err) {
		// Accounts are never deleted, so no edge can point at an unknown user
		h.logger.Debug("Ignoring removal of unknown connection",
			zap.String("userID", cmd.UserID),
			zap.String("otherID", cmd.OtherID),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	wasConnected := user.IsConnectedTo(cmd.OtherID)
	if err := h.connections.RemoveConnection(ctx, cmd.UserID, cmd.OtherID); err != nil {
		return nil, err
	}
	if wasConnected {
		invalidateProfiles(ctx, h.profiles, h.logger, user, other)
	}

	if wasConnected && h.eventBus != nil {
		event := events.NewConnectionRemoved(cmd.UserID, cmd.OtherID, utils.NowUTC())
		if err := h.eventBus.Publish(ctx, event); err != nil {
			h.logger.Error("Failed to publish domain event",
				zap.String("eventType", event.GetEventType()),
				zap.Error(err),
			)
		}
	}
	return nil, nil
}

var (
	_ bus.CommandHandler = (*SendConnectionRequestHandler)(nil)
	_ bus.CommandHandler = (*AcceptConnectionRequestHandler)(nil)
	_ bus.CommandHandler = (*RejectConnectionRequestHandler)(nil)
	_ bus.CommandHandler = (*RemoveConnectionHandler)(nil)
)

// RegisterConnectionHandlers registers every connection command on b
func RegisterConnectionHandlers(
	b *bus.CommandBus,
	send *SendConnectionRequestHandler,
	accept *AcceptConnectionRequestHandler,
	reject *RejectConnectionRequestHandler,
	remove *RemoveConnectionHandler,
) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.SendConnectionRequestCommand{}, send},
		{commands.AcceptConnectionRequestCommand{}, accept},
		{commands.RejectConnectionRequestCommand{}, reject},
		{commands.RemoveConnectionCommand{}, remove},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
