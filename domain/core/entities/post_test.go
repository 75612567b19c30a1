package entities

import (
	"strings"
	"testing"

	pkgerrors "hirenest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPost(t *testing.T) {
	p, err := NewPost("alice", "  hello network  ", "", 100, testNow)
	require.NoError(t, err)

	assert.Equal(t, "hello network", p.Content)
	assert.Empty(t, p.Likes)
	assert.Empty(t, p.Comments)
	assert.Equal(t, 1, p.Version)
	assert.True(t, p.IsAuthor("alice"))

	_, err = NewPost("alice", "   ", "", 100, testNow)
	assert.True(t, pkgerrors.IsValidation(err))

	imageOnly, err := NewPost("alice", "", "mem://local/posts/p/1.png", 100, testNow)
	require.NoError(t, err)
	assert.Empty(t, imageOnly.Content)
	assert.Equal(t, "mem://local/posts/p/1.png", imageOnly.Image)

	_, err = NewPost("alice", strings.Repeat("x", 101), "", 100, testNow)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestPost_ToggleLikeIsAnInvolution(t *testing.T) {
	p, err := NewPost("alice", "hello", "", 0, testNow)
	require.NoError(t, err)

	assert.True(t, p.ToggleLike("bob", testNow))
	assert.True(t, p.ToggleLike("carol", testNow))
	assert.Equal(t, []string{"bob", "carol"}, p.Likes)

	assert.False(t, p.ToggleLike("bob", testNow))
	assert.Equal(t, []string{"carol"}, p.Likes)
	assert.False(t, p.IsLikedBy("bob"))

	assert.True(t, p.ToggleLike("bob", testNow))
	assert.Equal(t, []string{"carol", "bob"}, p.Likes)
}

func TestPost_AddComment(t *testing.T) {
	p, err := NewPost("alice", "hello", "", 0, testNow)
	require.NoError(t, err)

	c, err := p.AddComment("bob", " congrats ", 50, testNow)
	require.NoError(t, err)
	assert.Equal(t, "congrats", c.Content)
	assert.Equal(t, "bob", c.UserID)
	assert.Len(t, p.Comments, 1)

	_, err = p.AddComment("bob", "", 50, testNow)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Len(t, p.Comments, 1)
}
