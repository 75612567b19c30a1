package di

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"hirenest/application/services"
	"hirenest/domain/core/entities"
	"hirenest/infrastructure/config"
	"hirenest/pkg/auth"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig() *config.Config {
	return &config.Config{
		Environment:      "development",
		ClientURL:        "http://localhost:5173",
		ShutdownTimeout:  time.Second,
		StorageBackend:   "memory",
		BlobBackend:      "memory",
		AWSRegion:        "us-west-2",
		DynamoDBTable:    "hirenest",
		IndexName:        "GSI1",
		SenderName:       "HireNest",
		EmailWorkers:     1,
		EmailQueueSize:   10,
		EmailSendTimeout: time.Second,
		CacheTTL:         time.Hour,
		LogLevel:         "error",
		JWTSecret:        "container-test-secret",
		JWTIssuer:        "hirenest",
		JWTExpiry:        time.Hour,
		AuthRateLimit:    100,
		AuthRateWindow:   time.Minute,
		EnableCORS:       true,
	}
}

func newContainer(t *testing.T) *Container {
	t.Helper()
	// Keep the AWS SDK away from the machine's shared config
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")

	container, cleanup, err := InitializeContainer(context.Background(), localConfig())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return container
}

func serve(t *testing.T, router *chi.Mux, method, path string, body interface{}, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signupSession(t *testing.T, router *chi.Mux, username string) *http.Cookie {
	t.Helper()
	rec := serve(t, router, http.MethodPost, "/api/v1/auth/signup", services.SignupRequest{
		Name:     "User " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse-battery",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatalf("signup for %s set no session cookie", username)
	return nil
}

func TestInitializeContainer_LocalBackends(t *testing.T) {
	container := newContainer(t)

	require.NotNil(t, container.Router)
	assert.NotNil(t, container.CommandBus)
	assert.NotNil(t, container.QueryBus)
	assert.NotNil(t, container.EmailQueue)
	assert.Nil(t, container.TracerProvider, "tracing is off without an endpoint")

	assert.Equal(t, http.StatusOK, serve(t, container.Router, http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, serve(t, container.Router, http.MethodGet, "/ready", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, container.Router, http.MethodGet, "/api/v1/auth/my-profile", nil, nil).Code)
}

func TestInitializeContainer_ProfileCacheSharedWithCommands(t *testing.T) {
	router := newContainer(t).Router
	aliceSession := signupSession(t, router, "alice")
	bobSession := signupSession(t, router, "bob")

	profile := func(username string) entities.User {
		t.Helper()
		rec := serve(t, router, http.MethodGet, "/api/v1/users/"+username, nil, bobSession)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var u entities.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
		return u
	}

	alice := profile("alice")
	assert.Empty(t, alice.Connections)

	rec := serve(t, router, http.MethodPost, "/api/v1/connections/request/"+alice.ID, nil, bobSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, router, http.MethodGet, "/api/v1/connections/requests", nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var incoming []entities.IncomingRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &incoming))
	require.Len(t, incoming, 1)

	rec = serve(t, router, http.MethodPut, "/api/v1/connections/accept/"+incoming[0].ID, nil, aliceSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Len(t, profile("alice").Connections, 1)
}
