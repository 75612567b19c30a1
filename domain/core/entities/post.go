package entities

import (
	"strings"
	"time"

	"hirenest/domain/core/valueobjects"
	pkgerrors "hirenest/pkg/errors"
)

// Comment is embedded in its parent post and has no lifecycle of its own
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is a feed entry. Likes keeps insertion order and holds each user at
// most once. Version increases on every write and guards concurrent updates.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPost creates a post. A post carries content, an image or both; image is
// the attachment reference or empty.
func NewPost(authorID, content, image string, maxLength int, now time.Time) (*Post, error) {
	content = strings.TrimSpace(content)
	image = strings.TrimSpace(image)
	if authorID == "" {
		return nil, pkgerrors.NewValidationError("author is required")
	}
	if content == "" && image == "" {
		return nil, pkgerrors.NewValidationError("content or image is required")
	}
	if maxLength > 0 && len(content) > maxLength {
		return nil, pkgerrors.NewValidationError("content is too long")
	}

	return &Post{
		ID:        valueobjects.NewID(),
		AuthorID:  authorID,
		Content:   content,
		Image:     image,
		Likes:     []string{},
		Comments:  []Comment{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsAuthor reports whether userID wrote the post
func (p *Post) IsAuthor(userID string) bool {
	return p.AuthorID == userID
}

// IsLikedBy reports whether userID currently likes the post
func (p *Post) IsLikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike removes userID from likes if present, otherwise appends it.
// It returns true when the call added a like.
func (p *Post) ToggleLike(userID string, now time.Time) bool {
	p.UpdatedAt = now
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return false
		}
	}
	p.Likes = append(p.Likes, userID)
	return true
}

// AddComment appends a comment written by userID
func (p *Post) AddComment(userID, content string, maxLength int, now time.Time) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, pkgerrors.NewValidationError("content is required")
	}
	if maxLength > 0 && len(content) > maxLength {
		return Comment{}, pkgerrors.NewValidationError("comment is too long")
	}

	c := Comment{
		ID:        valueobjects.NewID(),
		Content:   content,
		UserID:    userID,
		CreatedAt: now,
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = now
	return c, nil
}

// CommentView is a comment with its author's public profile
type CommentView struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PostView is a post with author and comment authors resolved
type PostView struct {
	ID        string        `json:"id"`
	Author    UserSummary   `json:"author"`
	Content   string        `json:"content"`
	Image     string        `json:"image,omitempty"`
	Likes     []string      `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
