package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hirenest/application/commands/bus"
	commandhandlers "hirenest/application/commands/handlers"
	"hirenest/application/ports"
	querybus "hirenest/application/queries/bus"
	queryhandlers "hirenest/application/queries/handlers"
	"hirenest/application/services"
	"hirenest/domain/config"
	"hirenest/domain/core/entities"
	"hirenest/infrastructure/ai"
	"hirenest/infrastructure/cache"
	"hirenest/infrastructure/document"
	"hirenest/infrastructure/messaging/local"
	"hirenest/infrastructure/persistence/memory"
	"hirenest/infrastructure/storage"
	"hirenest/interfaces/http/rest/handlers"
	"hirenest/pkg/auth"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/observability"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type discardQueue struct{}

func (discardQueue) Enqueue(ports.Email) bool { return true }

type testServer struct {
	mux *chi.Mux
	t   *testing.T
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	tracer := observability.NewTracer("test")
	store := memory.NewStore()
	blobs := storage.NewMemoryStore()
	eventBus := local.NewEventBus(logger)
	emails := discardQueue{}
	clientURL := "http://localhost:5173"

	jwtCfg := auth.JWTConfig{SecretKey: "test-secret", Issuer: "hirenest-test", ExpiryTime: time.Hour}
	issuer, err := auth.NewJWTGenerator(jwtCfg)
	require.NoError(t, err)
	validator, err := auth.NewJWTValidator(jwtCfg)
	require.NoError(t, err)

	authService := services.NewAuthService(store.Users(), issuer, validator, emails, eventBus, cfg, clientURL, logger)
	profiles := cache.NewMemoryCache()
	t.Cleanup(func() { _ = profiles.Close() })

	userService := services.NewUserService(store.Users(), blobs, profiles, time.Minute, eventBus, cfg, tracer, logger)
	notificationService := services.NewNotificationService(store.Notifications(), store.Users(), store.Posts(), logger)
	postService := services.NewPostService(store.Posts(), store.Users(), notificationService, blobs, emails, eventBus,
		cfg, clientURL, nil, tracer, logger)
	resumeService := services.NewResumeService(blobs, document.NewPDFExtractor(), ai.EchoTransformer{},
		document.NewPDFRenderer(), eventBus, cfg, nil, tracer, logger)

	commandBus := bus.NewCommandBus()
	require.NoError(t, commandhandlers.RegisterConnectionHandlers(commandBus,
		commandhandlers.NewSendConnectionRequestHandler(store.Users(), store.Connections(), eventBus, nil, logger),
		commandhandlers.NewAcceptConnectionRequestHandler(store.Users(), store.Connections(), eventBus, emails, profiles, clientURL, nil, logger),
		commandhandlers.NewRejectConnectionRequestHandler(store.Connections(), eventBus, logger),
		commandhandlers.NewRemoveConnectionHandler(store.Users(), store.Connections(), eventBus, profiles, logger),
	))
	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.RegisterConnectionHandlers(queryBus,
		queryhandlers.NewListIncomingRequestsHandler(store.Users(), store.Connections(), logger),
		queryhandlers.NewListConnectionsHandler(store.Users()),
		queryhandlers.NewGetConnectionStatusHandler(store.Users(), store.Connections()),
	))

	errs := pkgerrors.NewErrorHandler(logger, false)
	router := NewRouter(
		handlers.NewAuthHandler(authService, errs, false, logger),
		handlers.NewUserHandler(userService, errs),
		handlers.NewPostHandler(postService, errs),
		handlers.NewConnectionHandler(commandBus, queryBus, errs),
		handlers.NewNotificationHandler(notificationService, errs),
		handlers.NewResumeHandler(resumeService, errs),
		authService,
		errs,
		observability.NewCollector("test"),
		opts,
		logger,
	)
	return &testServer{mux: router.Setup(), t: t}
}

func (s *testServer) do(method, path string, body interface{}, session *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// signup registers username and returns its session cookie
func (s *testServer) signup(username string) *http.Cookie {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/signup", services.SignupRequest{
		Name:     "User " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse-battery",
	}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(s.t, rec)
}

func (s *testServer) me(session *http.Cookie) entities.User {
	s.t.Helper()
	rec := s.do(http.MethodGet, "/api/v1/auth/my-profile", nil, session)
	require.Equal(s.t, http.StatusOK, rec.Code)
	var user entities.User
	decode(s.t, rec, &user)
	return user
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", auth.SessionCookieName)
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) pkgerrors.ErrorResponse {
	t.Helper()
	var body pkgerrors.ErrorResponse
	decode(t, rec, &body)
	return body
}

func TestRouter_HealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/nowhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorBody(t, rec).Type)

	rec = s.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestRouter_ReadinessFailure(t *testing.T) {
	s := newTestServer(t, Options{Readiness: ReadinessChecks{
		"dynamodb": func(ctx context.Context) error { return errors.New("table not found") },
	}})

	rec := s.do(http.MethodGet, "/ready", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "table not found")
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, Options{})

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/auth/my-profile"},
		{http.MethodGet, "/api/v1/users/suggestions"},
		{http.MethodPut, "/api/v1/users/profile"},
		{http.MethodGet, "/api/v1/posts"},
		{http.MethodPost, "/api/v1/connections/request/someone"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodPost, "/api/v1/restructure"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := s.do(route.method, route.path, nil, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = s.do(route.method, route.path, nil, &http.Cookie{Name: auth.SessionCookieName, Value: "forged"})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", errorBody(t, rec).Type)
		})
	}
}

func TestRouter_SignupLoginLogout(t *testing.T) {
	s := newTestServer(t, Options{})

	session := s.signup("alice")
	assert.True(t, session.HttpOnly)
	assert.Equal(t, "alice", s.me(session).Username)

	rec := s.do(http.MethodPost, "/api/v1/auth/signup", services.SignupRequest{
		Name: "Other", Username: "alice", Email: "other@example.com", Password: "correct-horse-battery",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "USERNAME_TAKEN", errorBody(t, rec).Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", services.LoginRequest{Username: "alice", Password: "wrong-password"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", errorBody(t, rec).Message)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", services.LoginRequest{Username: "alice", Password: "correct-horse-battery"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", s.me(sessionCookie(t, rec)).Username)

	rec = s.do(http.MethodPost, "/api/v1/auth/logout", nil, session)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)
}

func TestRouter_AuthRateLimit(t *testing.T) {
	s := newTestServer(t, Options{
		AuthLimiter: auth.NewSlidingWindowLimiter(2, time.Minute),
		AuthLimit:   2,
		AuthWindow:  time.Minute,
	})

	login := services.LoginRequest{Username: "nobody", Password: "whatever-password"}
	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, "/api/v1/auth/login", login, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := s.do(http.MethodPost, "/api/v1/auth/login", login, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT", errorBody(t, rec).Type)

	// Logout is outside the limited group
	rec = s.do(http.MethodPost, "/api/v1/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UpdateProfile(t *testing.T) {
	s := newTestServer(t, Options{})
	session := s.signup("alice")

	rec := s.do(http.MethodPut, "/api/v1/users/profile", `{"headline":"Go engineer","isAdmin":true}`, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown keys are rejected")

	rec = s.do(http.MethodPut, "/api/v1/users/profile", `{"headline":"Go engineer","skills":["Go","AWS"]}`, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/users/alice", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile map[string]interface{}
	decode(t, rec, &profile)
	assert.Equal(t, "Go engineer", profile["headline"])
	assert.NotContains(t, profile, "PasswordHash")
	assert.NotContains(t, profile, "passwordHash")

	rec = s.do(http.MethodGet, "/api/v1/users/nobody", nil, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ConnectionLifecycle(t *testing.T) {
	s := newTestServer(t, Options{})
	aliceSession := s.signup("alice")
	bobSession := s.signup("bob")
	alice := s.me(aliceSession)
	bob := s.me(bobSession)

	profileConnections := func() []string {
		t.Helper()
		rec := s.do(http.MethodGet, "/api/v1/users/alice", nil, bobSession)
		require.Equal(t, http.StatusOK, rec.Code)
		var profile entities.User
		decode(t, rec, &profile)
		return profile.Connections
	}
	assert.Empty(t, profileConnections(), "primes the profile cache")

	rec := s.do(http.MethodPost, "/api/v1/connections/request/"+bob.ID, nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/v1/connections/request/"+bob.ID, nil, aliceSession)
	assert.Equal(t, http.StatusOK, rec.Code, "repeating a pending request succeeds")

	rec = s.do(http.MethodGet, "/api/v1/connections/requests", nil, bobSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var incoming []entities.IncomingRequest
	decode(t, rec, &incoming)
	require.Len(t, incoming, 1)
	assert.Equal(t, alice.ID, incoming[0].Sender.ID)

	rec = s.do(http.MethodPut, "/api/v1/connections/accept/"+incoming[0].ID, nil, aliceSession)
	assert.Equal(t, http.StatusForbidden, rec.Code, "only the recipient decides")

	rec = s.do(http.MethodPut, "/api/v1/connections/accept/"+incoming[0].ID, nil, bobSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{bob.ID}, profileConnections())

	rec = s.do(http.MethodPut, "/api/v1/connections/reject/"+incoming[0].ID, nil, bobSession)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATE", errorBody(t, rec).Type)

	rec = s.do(http.MethodGet, "/api/v1/connections/status/"+bob.ID, nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var status entities.ConnectionStatusView
	decode(t, rec, &status)
	assert.Equal(t, entities.RelationshipConnected, status.Status)

	rec = s.do(http.MethodGet, "/api/v1/notifications", nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []entities.NotificationView
	decode(t, rec, &notifications)
	require.Len(t, notifications, 1)
	assert.Equal(t, entities.NotificationConnectionAccepted, notifications[0].Type)

	rec = s.do(http.MethodPut, "/api/v1/notifications/"+notifications[0].ID+"/read", nil, aliceSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/connections/"+bob.ID, nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, profileConnections())

	rec = s.do(http.MethodDelete, "/api/v1/connections/unknown-user", nil, aliceSession)
	assert.Equal(t, http.StatusOK, rec.Code, "removal is idempotent")

	rec = s.do(http.MethodGet, "/api/v1/connections", nil, bobSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_PostsAndFeed(t *testing.T) {
	s := newTestServer(t, Options{})
	aliceSession := s.signup("alice")
	bobSession := s.signup("bob")
	bob := s.me(bobSession)

	rec := s.do(http.MethodPost, "/api/v1/connections/request/"+bob.ID, nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/connections/requests", nil, bobSession)
	var incoming []entities.IncomingRequest
	decode(t, rec, &incoming)
	require.Len(t, incoming, 1)
	rec = s.do(http.MethodPut, "/api/v1/connections/accept/"+incoming[0].ID, nil, bobSession)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/posts/create", services.CreatePostRequest{Content: "  "}, bobSession)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/posts/create", services.CreatePostRequest{Content: "Hiring Go engineers"}, bobSession)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created entities.PostView
	decode(t, rec, &created)

	rec = s.do(http.MethodGet, "/api/v1/posts", nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []entities.PostView
	decode(t, rec, &feed)
	require.Len(t, feed, 1)
	assert.Equal(t, "Hiring Go engineers", feed[0].Content)
	assert.Equal(t, "bob", feed[0].Author.Username)

	rec = s.do(http.MethodPost, "/api/v1/posts/"+created.ID+"/like", nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/v1/posts/"+created.ID+"/comment", services.CommentRequest{Content: "Interested!"}, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/posts/"+created.ID, nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var post entities.PostView
	decode(t, rec, &post)
	assert.Len(t, post.Likes, 1)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "alice", post.Comments[0].User.Username)

	rec = s.do(http.MethodDelete, "/api/v1/posts/delete/"+created.ID, nil, aliceSession)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/posts/delete/"+created.ID, nil, bobSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/posts/"+created.ID, nil, aliceSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Restructure(t *testing.T) {
	s := newTestServer(t, Options{})
	session := s.signup("alice")

	resume := "Alice Example\nBackend engineer\n- Built payment services in Go\n"
	dataURL := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte(resume))
	rec := s.do(http.MethodPut, "/api/v1/users/profile", map[string]string{"resume": dataURL}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored := s.me(session).Resume
	require.True(t, strings.HasPrefix(stored, "mem://local/"))

	rec = s.do(http.MethodPost, "/api/v1/restructure", services.RestructureRequest{ResumeURL: stored}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/restructure", services.RestructureRequest{
		ResumeURL:      stored,
		JobDescription: "Senior Go engineer for a payments platform",
	}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result services.RestructureResult
	decode(t, rec, &result)
	assert.True(t, strings.HasPrefix(result.PdfURL, "mem://local/"))
	assert.NotEmpty(t, result.Message)
}
