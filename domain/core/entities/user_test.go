package entities

import (
	"testing"

	"hirenest/domain/config"
	pkgerrors "hirenest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, username string) *User {
	t.Helper()
	u, err := NewUser(config.DefaultDomainConfig(), "Test "+username, username, username+"@example.com", "hash", testNow)
	require.NoError(t, err)
	return u
}

func TestNewUser_Defaults(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	u, err := NewUser(cfg, "Alice", " alice ", " Alice@Example.COM ", "hash", testNow)
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, cfg.DefaultHeadline, u.Headline)
	assert.Equal(t, cfg.DefaultLocation, u.Location)
	assert.NotNil(t, u.Connections)
	assert.Empty(t, u.Connections)
	assert.Equal(t, testNow, u.CreatedAt)
}

func TestNewUser_Invalid(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	tests := []struct {
		name     string
		fullName string
		username string
		email    string
	}{
		{name: "missing name", fullName: "", username: "alice", email: "alice@example.com"},
		{name: "bad email", fullName: "Alice", username: "alice", email: "not-an-email"},
		{name: "bad username", fullName: "Alice", username: "al ice", email: "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(cfg, tt.fullName, tt.username, tt.email, "hash", testNow)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestUser_ConnectionSet(t *testing.T) {
	u := newTestUser(t, "alice")

	assert.True(t, u.AddConnection("bob"))
	assert.False(t, u.AddConnection("bob"), "duplicates are ignored")
	assert.False(t, u.AddConnection(u.ID), "self references are ignored")
	assert.Equal(t, []string{"bob"}, u.Connections)
	assert.True(t, u.IsConnectedTo("bob"))

	assert.True(t, u.RemoveConnection("bob"))
	assert.False(t, u.RemoveConnection("bob"))
	assert.Empty(t, u.Connections)
}

func TestProfileChanges_Apply(t *testing.T) {
	u := newTestUser(t, "alice")
	headline := "Staff Engineer"
	skills := []string{"go", "dynamodb"}

	changed := ProfileChanges{Headline: &headline, Skills: &skills}.Apply(u, testNow.Add(1))

	assert.Equal(t, []string{"headline", "skills"}, changed)
	assert.Equal(t, headline, u.Headline)
	assert.Equal(t, skills, u.Skills)
	assert.Equal(t, testNow.Add(1), u.UpdatedAt)

	assert.Empty(t, ProfileChanges{}.Apply(u, testNow.Add(2)))
	assert.Equal(t, testNow.Add(1), u.UpdatedAt)
}
