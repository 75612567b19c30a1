package services

import (
	"context"
	"testing"

	"hirenest/domain/events"
	pkgerrors "hirenest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Signup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, token, err := f.auth.Signup(ctx, SignupRequest{
		Name:     "Alice Example",
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)
	assert.Len(t, f.events.OfType(events.TypeUserRegistered), 1)

	sent := f.emails.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)

	authed, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestAuthService_SignupValidation(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")

	tests := []struct {
		name string
		req  SignupRequest
		code string
	}{
		{name: "missing fields", req: SignupRequest{Username: "bob", Password: "correct-horse-battery"}},
		{name: "short password", req: SignupRequest{Name: "Bob", Username: "bob", Email: "bob@example.com", Password: "short"}},
		{name: "bad email", req: SignupRequest{Name: "Bob", Username: "bob", Email: "bob", Password: "correct-horse-battery"}},
		{
			name: "username taken",
			req:  SignupRequest{Name: "Bob", Username: "alice", Email: "bob@example.com", Password: "correct-horse-battery"},
			code: "USERNAME_TAKEN",
		},
		{
			name: "email taken",
			req:  SignupRequest{Name: "Bob", Username: "bob", Email: "alice@example.com", Password: "correct-horse-battery"},
			code: "EMAIL_TAKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.auth.Signup(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			if tt.code != "" {
				assert.Equal(t, tt.code, pkgerrors.GetAppError(err).Code)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.signup(t, "alice")

	user, token, err := f.auth.Login(ctx, LoginRequest{Username: "alice", Password: "correct-horse-battery"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.NotEmpty(t, token)

	// Unknown user and wrong password are indistinguishable
	_, _, errUnknown := f.auth.Login(ctx, LoginRequest{Username: "nobody", Password: "correct-horse-battery"})
	_, _, errWrong := f.auth.Login(ctx, LoginRequest{Username: "alice", Password: "wrong-password-here"})
	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, pkgerrors.GetAppError(errUnknown).Message, pkgerrors.GetAppError(errWrong).Message)
	assert.True(t, pkgerrors.IsValidation(errWrong))
}

func TestAuthService_AuthenticateRejectsBadTokens(t *testing.T) {
	f := newFixture(t)

	for _, token := range []string{"", "garbage", "eyJhbGciOiJIUzI1NiJ9.e30.invalid"} {
		_, err := f.auth.Authenticate(context.Background(), token)
		assert.True(t, pkgerrors.IsUnauthorized(err), "token %q", token)
	}
}
