package handlers

import (
	"context"
	"net/http"

	"hirenest/application/services"
	"hirenest/domain/core/entities"
	"hirenest/pkg/common"
	pkgerrors "hirenest/pkg/errors"
)

// FeedService is the part of the post service used over HTTP
type FeedService interface {
	GetFeed(ctx context.Context, userID string) ([]entities.PostView, error)
	CreatePost(ctx context.Context, authorID string, req services.CreatePostRequest) (*entities.PostView, error)
	DeletePost(ctx context.Context, postID, userID string) error
	GetPost(ctx context.Context, postID string) (*entities.PostView, error)
	AddComment(ctx context.Context, postID, userID string, req services.CommentRequest) (*entities.PostView, error)
	ToggleLike(ctx context.Context, postID, userID string) (*entities.PostView, error)
}

// PostHandler handles feed and post requests
type PostHandler struct {
	posts  FeedService
	errors *pkgerrors.ErrorHandler
}

// NewPostHandler creates a new post handler
func NewPostHandler(posts FeedService, errs *pkgerrors.ErrorHandler) *PostHandler {
	return &PostHandler{posts: posts, errors: errs}
}

// Feed handles GET /posts
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	posts, err := h.posts.GetFeed(r.Context(), caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, posts)
}

// Create handles POST /posts/create
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req services.CreatePostRequest
	if err := common.ParseJSONBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	post, err := h.posts.CreatePost(r.Context(), caller.UserID, req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, post)
}

// Delete handles DELETE /posts/delete/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	postID, err := pathParam(r, "id", "Post ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.posts.DeletePost(r.Context(), postID, caller.UserID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Post deleted successfully")
}

// Get handles GET /posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := pathParam(r, "id", "Post ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	post, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, post)
}

// Comment handles POST /posts/{id}/comment
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	postID, err := pathParam(r, "id", "Post ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req services.CommentRequest
	if err := common.ParseJSONBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	post, err := h.posts.AddComment(r.Context(), postID, caller.UserID, req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, post)
}

// Like handles POST /posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	postID, err := pathParam(r, "id", "Post ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	post, err := h.posts.ToggleLike(r.Context(), postID, caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, post)
}
