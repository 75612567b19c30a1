package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hirenest/application/ports"
	"hirenest/domain/config"
	"hirenest/domain/core/entities"
	"hirenest/infrastructure/messaging/local"
	"hirenest/infrastructure/persistence/memory"
	"hirenest/infrastructure/storage"
	"hirenest/pkg/auth"
	"hirenest/pkg/observability"

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

func (q *recordingQueue) sent() []ports.Email {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]ports.Email(nil), q.emails...)
}

// fixture wires every service over the in-memory adapters
type fixture struct {
	store         *memory.Store
	blobs         *storage.MemoryStore
	events        *local.EventBus
	emails        *recordingQueue
	cfg           *config.DomainConfig
	auth          *AuthService
	users         *UserService
	posts         *PostService
	notifications *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	tracer := observability.NewTracer("test")
	jwtCfg := auth.JWTConfig{SecretKey: "test-secret", Issuer: "hirenest-test", ExpiryTime: time.Hour}
	issuer, err := auth.NewJWTGenerator(jwtCfg)
	require.NoError(t, err)
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)

	f := &fixture{
		store:  memory.NewStore(),
		blobs:  storage.NewMemoryStore(),
		events: local.NewEventBus(logger),
		emails: &recordingQueue{},
		cfg:    config.DefaultDomainConfig(),
	}
	f.auth = NewAuthService(f.store.Users(), issuer, validator, f.emails, f.events, f.cfg, "http://localhost:5173", logger)
	f.users = NewUserService(f.store.Users(), f.blobs, nil, time.Minute, f.events, f.cfg, tracer, logger)
	f.notifications = NewNotificationService(f.store.Notifications(), f.store.Users(), f.store.Posts(), logger)
	f.posts = NewPostService(f.store.Posts(), f.store.Users(), f.notifications, f.blobs, f.emails, f.events,
		f.cfg, "http://localhost:5173", nil, tracer, logger)
	return f
}

func (f *fixture) signup(t *testing.T, username string) *entities.User {
	t.Helper()
	user, _, err := f.auth.Signup(context.Background(), SignupRequest{
		Name:     "User " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) connect(t *testing.T, a, b *entities.User) {
	t.Helper()
	ctx := context.Background()
	req, err := entities.NewConnectionRequest(a.ID, b.ID, time.Now().UTC())
	require.NoError(t, err)
	_, _, err = f.store.Connections().CreateRequest(ctx, req)
	require.NoError(t, err)
	require.NoError(t, req.Accept(b.ID, time.Now().UTC()))
	require.NoError(t, f.store.Connections().Accept(ctx, req, nil))
}
