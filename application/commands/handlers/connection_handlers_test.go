package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"hirenest/application/commands"
	"hirenest/application/commands/bus"
	"hirenest/application/ports"
	"hirenest/application/queries"
	querybus "hirenest/application/queries/bus"
	queryhandlers "hirenest/application/queries/handlers"
	"hirenest/application/services"
	"hirenest/domain/config"
	"hirenest/domain/core/entities"
	"hirenest/domain/events"
	"hirenest/infrastructure/cache"
	"hirenest/infrastructure/messaging/local"
	"hirenest/infrastructure/persistence/memory"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/observability"
	"hirenest/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingQueue struct {
	mu     sync.Mutex
	emails []ports.Email
}

func (q *recordingQueue) Enqueue(email ports.Email) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.emails = append(q.emails, email)
	return true
}

type connectionFixture struct {
	store    *memory.Store
	profiles *cache.MemoryCache
	events   *local.EventBus
	emails   *recordingQueue
	commands *bus.CommandBus
	queries  *querybus.QueryBus
	alice    *entities.User
	bob      *entities.User
}

func newConnectionFixture(t *testing.T) *connectionFixture {
	t.Helper()
	logger := zap.NewNop()
	f := &connectionFixture{
		store:    memory.NewStore(),
		profiles: cache.NewMemoryCache(),
		events:   local.NewEventBus(logger),
		emails:   &recordingQueue{},
		commands: bus.NewCommandBus(),
		queries:  querybus.NewQueryBus(),
	}
	t.Cleanup(func() { _ = f.profiles.Close() })
	users := f.store.Users()
	connections := f.store.Connections()

	require.NoError(t, RegisterConnectionHandlers(f.commands,
		NewSendConnectionRequestHandler(users, connections, f.events, nil, logger),
		NewAcceptConnectionRequestHandler(users, connections, f.events, f.emails, f.profiles, "http://localhost:5173", nil, logger),
		NewRejectConnectionRequestHandler(connections, f.events, logger),
		NewRemoveConnectionHandler(users, connections, f.events, f.profiles, logger),
	))
	require.NoError(t, queryhandlers.RegisterConnectionHandlers(f.queries,
		queryhandlers.NewListIncomingRequestsHandler(users, connections, logger),
		queryhandlers.NewListConnectionsHandler(users),
		queryhandlers.NewGetConnectionStatusHandler(users, connections),
	))

	f.alice = f.createUser(t, "alice")
	f.bob = f.createUser(t, "bob")
	return f
}

func (f *connectionFixture) createUser(t *testing.T, username string) *entities.User {
	t.Helper()
	u, err := entities.NewUser(config.DefaultDomainConfig(), "User "+username, username, username+"@example.com", "hash", utils.NowUTC())
	require.NoError(t, err)
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *connectionFixture) send(t *testing.T, from, to *entities.User) *commands.SendConnectionRequestResult {
	t.Helper()
	out, err := f.commands.Send(context.Background(), commands.SendConnectionRequestCommand{SenderID: from.ID, RecipientID: to.ID})
	require.NoError(t, err)
	return out.(*commands.SendConnectionRequestResult)
}

func (f *connectionFixture) status(t *testing.T, viewer, target *entities.User) entities.ConnectionStatusView {
	t.Helper()
	out, err := f.queries.Ask(context.Background(), queries.GetConnectionStatusQuery{ViewerID: viewer.ID, TargetID: target.ID})
	require.NoError(t, err)
	return out.(entities.ConnectionStatusView)
}

func (f *connectionFixture) connectionsOf(t *testing.T, u *entities.User) []string {
	t.Helper()
	stored, err := f.store.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	return stored.Connections
}

func TestConnectionLifecycle_AcceptScenario(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture(t)

	// Alice invites Bob
	sent := f.send(t, f.alice, f.bob)
	assert.True(t, sent.Created)
	assert.Equal(t, entities.ConnectionPending, sent.Request.Status())

	assert.Equal(t, entities.RelationshipPending, f.status(t, f.alice, f.bob).Status)
	received := f.status(t, f.bob, f.alice)
	assert.Equal(t, entities.RelationshipReceived, received.Status)
	assert.Equal(t, sent.Request.ID(), received.RequestID)

	out, err := f.queries.Ask(ctx, queries.ListIncomingRequestsQuery{UserID: f.bob.ID})
	require.NoError(t, err)
	incoming := out.([]entities.IncomingRequest)
	require.Len(t, incoming, 1)
	assert.Equal(t, f.alice.ID, incoming[0].Sender.ID)
	assert.Equal(t, "alice", incoming[0].Sender.Username)

	// Bob accepts
	_, err = f.commands.Send(ctx, commands.AcceptConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: f.bob.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{f.bob.ID}, f.connectionsOf(t, f.alice))
	assert.Equal(t, []string{f.alice.ID}, f.connectionsOf(t, f.bob))
	assert.Equal(t, entities.RelationshipConnected, f.status(t, f.alice, f.bob).Status)
	assert.Equal(t, entities.RelationshipConnected, f.status(t, f.bob, f.alice).Status)

	notifications, err := f.store.Notifications().ListByRecipient(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, entities.NotificationConnectionAccepted, notifications[0].Type)
	assert.Equal(t, f.bob.ID, notifications[0].RelatedUserID)

	require.Len(t, f.emails.emails, 1)
	assert.Equal(t, f.alice.Email, f.emails.emails[0].To)
	assert.Len(t, f.events.OfType(events.TypeConnectionAccepted), 1)

	out, err = f.queries.Ask(ctx, queries.ListIncomingRequestsQuery{UserID: f.bob.ID})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = f.queries.Ask(ctx, queries.ListConnectionsQuery{UserID: f.bob.ID})
	require.NoError(t, err)
	list := out.([]entities.ConnectionSummary)
	require.Len(t, list, 1)
	assert.Equal(t, f.alice.ID, list[0].ID)
	assert.Equal(t, []string{f.bob.ID}, list[0].Connections)

	// A decided request cannot be decided again
	_, err = f.commands.Send(ctx, commands.AcceptConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: f.bob.ID})
	assert.True(t, pkgerrors.IsInvalidState(err))
	_, err = f.commands.Send(ctx, commands.RejectConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: f.bob.ID})
	assert.True(t, pkgerrors.IsInvalidState(err))
	assert.Equal(t, []string{f.alice.ID}, f.connectionsOf(t, f.bob))
}

func TestConnectionLifecycle_SendIsIdempotent(t *testing.T) {
	f := newConnectionFixture(t)

	first := f.send(t, f.alice, f.bob)
	second := f.send(t, f.alice, f.bob)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Request.ID(), second.Request.ID())
	assert.Len(t, f.events.OfType(events.TypeConnectionRequested), 1)

	out, err := f.queries.Ask(context.Background(), queries.ListIncomingRequestsQuery{UserID: f.bob.ID})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestConnectionLifecycle_SendRules(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture(t)

	_, err := f.commands.Send(ctx, commands.SendConnectionRequestCommand{SenderID: f.alice.ID, RecipientID: f.alice.ID})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = f.commands.Send(ctx, commands.SendConnectionRequestCommand{SenderID: f.alice.ID, RecipientID: "missing"})
	assert.True(t, pkgerrors.IsNotFound(err))

	sent := f.send(t, f.alice, f.bob)
	_, err = f.commands.Send(ctx, commands.AcceptConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: f.bob.ID})
	require.NoError(t, err)

	_, err = f.commands.Send(ctx, commands.SendConnectionRequestCommand{SenderID: f.bob.ID, RecipientID: f.alice.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, "ALREADY_CONNECTED", pkgerrors.GetAppError(err).Code)
}

func TestConnectionLifecycle_OnlyRecipientDecides(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture(t)
	carol := f.createUser(t, "carol")
	sent := f.send(t, f.alice, f.bob)

	for _, actor := range []*entities.User{f.alice, carol} {
		_, err := f.commands.Send(ctx, commands.AcceptConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: actor.ID})
		assert.True(t, pkgerrors.IsForbidden(err))
		_, err = f.commands.Send(ctx, commands.RejectConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: actor.ID})
		assert.True(t, pkgerrors.IsForbidden(err))
	}

	_, err := f.commands.Send(ctx, commands.AcceptConnectionRequestCommand{RequestID: "unknown", ActingUserID: f.bob.ID})
	assert.True(t, pkgerrors.IsNotFound(err))

	assert.Equal(t, entities.RelationshipPending, f.status(t, f.alice, f.bob).Status)
	assert.Empty(t, f.connectionsOf(t, f.alice))
}

func TestConnectionLifecycle_Reject(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture(t)
	sent := f.send(t, f.alice, f.bob)

	out, err := f.commands.Send(ctx, commands.RejectConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: f.bob.ID})
	require.NoError(t, err)
	assert.Equal(t, entities.ConnectionRejected, out.(*entities.ConnectionRequest).Status())

	assert.Empty(t, f.connectionsOf(t, f.alice))
	assert.Empty(t, f.connectionsOf(t, f.bob))
	assert.Equal(t, entities.RelationshipNotConnected, f.status(t, f.alice, f.bob).Status)
	assert.Empty(t, f.emails.emails)

	// A rejected request frees the pair for a new invitation
	again := f.send(t, f.alice, f.bob)
	assert.True(t, again.Created)
	assert.NotEqual(t, sent.Request.ID(), again.Request.ID())
}

func TestConnectionLifecycle_Remove(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture(t)
	sent := f.send(t, f.alice, f.bob)
	_, err := f.commands.Send(ctx, commands.AcceptConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: f.bob.ID})
	require.NoError(t, err)

	_, err = f.commands.Send(ctx, commands.RemoveConnectionCommand{UserID: f.bob.ID, OtherID: f.alice.ID})
	require.NoError(t, err)

	assert.Empty(t, f.connectionsOf(t, f.alice))
	assert.Empty(t, f.connectionsOf(t, f.bob))
	assert.Equal(t, entities.RelationshipNotConnected, f.status(t, f.bob, f.alice).Status)
	assert.Len(t, f.events.OfType(events.TypeConnectionRemoved), 1)

	// Removing again succeeds and publishes nothing
	_, err = f.commands.Send(ctx, commands.RemoveConnectionCommand{UserID: f.bob.ID, OtherID: f.alice.ID})
	require.NoError(t, err)
	assert.Len(t, f.events.OfType(events.TypeConnectionRemoved), 1)

	_, err = f.commands.Send(ctx, commands.RemoveConnectionCommand{UserID: f.bob.ID, OtherID: "missing"})
	assert.NoError(t, err)
	assert.Len(t, f.events.OfType(events.TypeConnectionRemoved), 1)
}

func TestConnectionLifecycle_CachedProfilesFollowConnections(t *testing.T) {
	ctx := context.Background()
	f := newConnectionFixture(t)
	profiles := services.NewUserService(f.store.Users(), nil, f.profiles, time.Hour, f.events,
		config.DefaultDomainConfig(), observability.NewTracer("test"), zap.NewNop())

	profileConnections := func(username string) []string {
		t.Helper()
		u, err := profiles.GetProfile(ctx, username)
		require.NoError(t, err)
		return u.Connections
	}

	assert.Empty(t, profileConnections("alice"))
	assert.Empty(t, profileConnections("bob"))

	sent := f.send(t, f.bob, f.alice)
	_, err := f.commands.Send(ctx, commands.AcceptConnectionRequestCommand{RequestID: sent.Request.ID(), ActingUserID: f.alice.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{f.bob.ID}, profileConnections("alice"))
	assert.Equal(t, []string{f.alice.ID}, profileConnections("bob"))

	_, err = f.commands.Send(ctx, commands.RemoveConnectionCommand{UserID: f.alice.ID, OtherID: f.bob.ID})
	require.NoError(t, err)

	assert.Empty(t, profileConnections("alice"))
	assert.Empty(t, profileConnections("bob"))
}

func TestConnectionStatus_ReceivedWinsOverSent(t *testing.T) {
	f := newConnectionFixture(t)

	fromAlice := f.send(t, f.alice, f.bob)
	fromBob := f.send(t, f.bob, f.alice)
	require.True(t, fromBob.Created)

	aliceView := f.status(t, f.alice, f.bob)
	assert.Equal(t, entities.RelationshipReceived, aliceView.Status)
	assert.Equal(t, fromBob.Request.ID(), aliceView.RequestID)

	bobView := f.status(t, f.bob, f.alice)
	assert.Equal(t, entities.RelationshipReceived, bobView.Status)
	assert.Equal(t, fromAlice.Request.ID(), bobView.RequestID)
}

func TestConnectionLifecycle_ConcurrentSendsCreateOneRequest(t *testing.T) {
	f := newConnectionFixture(t)

	var wg sync.WaitGroup
	results := make([]*commands.SendConnectionRequestResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.commands.Send(context.Background(), commands.SendConnectionRequestCommand{SenderID: f.alice.ID, RecipientID: f.bob.ID})
			if err == nil {
				results[i] = out.(*commands.SendConnectionRequestResult)
			}
		}(i)
	}
	wg.Wait()

	created := 0
	for _, r := range results {
		require.NotNil(t, r)
		if r.Created {
			created++
		}
		assert.Equal(t, results[0].Request.ID(), r.Request.ID())
	}
	assert.Equal(t, 1, created)
}
