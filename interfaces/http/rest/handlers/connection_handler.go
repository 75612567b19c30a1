package handlers

import (
	"context"
	"net/http"

	"hirenest/application/commands"
	"hirenest/application/commands/bus"
	"hirenest/application/queries"
	querybus "hirenest/application/queries/bus"
	"hirenest/pkg/common"
	pkgerrors "hirenest/pkg/errors"
)

// CommandSender dispatches commands; *bus.CommandBus implements it
type CommandSender interface {
	Send(ctx context.Context, cmd bus.Command) (interface{}, error)
}

// QueryAsker dispatches queries; *querybus.QueryBus implements it
type QueryAsker interface {
	Ask(ctx context.Context, query querybus.Query) (interface{}, error)
}

// ConnectionHandler handles the connection lifecycle requests
type ConnectionHandler struct {
	commandBus CommandSender
	queryBus   QueryAsker
	errors     *pkgerrors.ErrorHandler
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(commandBus CommandSender, queryBus QueryAsker, errs *pkgerrors.ErrorHandler) *ConnectionHandler {
	return &ConnectionHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
	}
}

// SendRequest handles POST /connections/request/{userId}. Repeating the
// request while one is pending succeeds without creating another.
func (h *ConnectionHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	recipientID, err := pathParam(r, "userId", "User ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if _, err := h.commandBus.Send(r.Context(), commands.SendConnectionRequestCommand{
		SenderID:    caller.UserID,
		RecipientID: recipientID,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Connection request sent successfully")
}

// Accept handles PUT /connections/accept/{requestId}
func (h *ConnectionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(requestID, userID string) bus.Command {
		return commands.AcceptConnectionRequestCommand{RequestID: requestID, ActingUserID: userID}
	}, "Connection request accepted successfully")
}

// Reject handles PUT /connections/reject/{requestId}
func (h *ConnectionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(requestID, userID string) bus.Command {
		return commands.RejectConnectionRequestCommand{RequestID: requestID, ActingUserID: userID}
	}, "Connection request rejected successfully")
}

func (h *ConnectionHandler) decide(w http.ResponseWriter, r *http.Request, build func(requestID, userID string) bus.Command, message string) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	requestID, err := pathParam(r, "requestId", "Invalid request ID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if _, err := h.commandBus.Send(r.Context(), build(requestID, caller.UserID)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, message)
}

// Requests handles GET /connections/requests
func (h *ConnectionHandler) Requests(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.ListIncomingRequestsQuery{UserID: caller.UserID})
}

// List handles GET /connections
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.ListConnectionsQuery{UserID: caller.UserID})
}

// Status handles GET /connections/status/{userId}
func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	targetID, err := pathParam(r, "userId", "User ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.GetConnectionStatusQuery{ViewerID: caller.UserID, TargetID: targetID})
}

func (h *ConnectionHandler) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Remove handles DELETE /connections/{userId}
func (h *ConnectionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	otherID, err := pathParam(r, "userId", "User ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if _, err := h.commandBus.Send(r.Context(), commands.RemoveConnectionCommand{
		UserID:  caller.UserID,
		OtherID: otherID,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Connection removed successfully")
}
