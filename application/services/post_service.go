package services

import (
	"context"
	"fmt"

	"hirenest/application/ports"
	"hirenest/domain/config"
	"hirenest/domain/core/entities"
	"hirenest/domain/core/valueobjects"
	"hirenest/domain/events"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/observability"
	"hirenest/pkg/utils"

	"go.uber.org/zap"
)

// CreatePostRequest is the body of POST /posts/create. Image is a data URL
// or bare base64.
type CreatePostRequest struct {
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// CommentRequest is the body of POST /posts/:id/comment
type CommentRequest struct {
	Content string `json:"content"`
}

// PostService manages posts, likes and comments and builds the feed
type PostService struct {
	posts     ports.PostRepository
	users     ports.UserRepository
	notifier  Notifier
	blobs     ports.BlobStore
	emails    ports.EmailQueue
	eventBus  ports.EventBus
	cfg       *config.DomainConfig
	clientURL string
	collector *observability.Collector
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(
	posts ports.PostRepository,
	users ports.UserRepository,
	notifier Notifier,
	blobs ports.BlobStore,
	emails ports.EmailQueue,
	eventBus ports.EventBus,
	cfg *config.DomainConfig,
	clientURL string,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		posts:     posts,
		users:     users,
		notifier:  notifier,
		blobs:     blobs,
		emails:    emails,
		eventBus:  eventBus,
		cfg:       cfg,
		clientURL: clientURL,
		collector: collector,
		tracer:    tracer,
		logger:    logger,
	}
}

// CreatePost stores the image, if any, and then the post
func (s *PostService) CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*entities.PostView, error) {
	post, err := entities.NewPost(authorID, req.Content, req.Image, s.cfg.MaxPostLength, utils.NowUTC())
	if err != nil {
		return nil, err
	}

	// The inline payload is swapped for its stored reference before the write
	if post.Image != "" {
		payload, err := utils.DecodeDataURL(post.Image)
		if err != nil {
			return nil, err
		}
		if !isImage(payload.ContentType) {
			return nil, pkgerrors.NewValidationError("image has unsupported type " + payload.ContentType)
		}
		key := fmt.Sprintf("posts/%s/%s%s", post.ID, valueobjects.NewID(), payload.Extension())
		ref, err := s.blobs.Put(ctx, key, payload.Data, payload.ContentType)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.Image != "" {
			s.deleteBlob(ctx, post.Image)
		}
		return nil, err
	}

	publishEvent(ctx, s.eventBus, s.logger, events.NewPostCreated(post.ID, authorID, post.Image != "", post.CreatedAt))
	s.collector.RecordPostCreated()

	views, err := s.buildViews(ctx, []*entities.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeletePost removes a post written by userID. The image is removed after
// the post; a failure there is only logged.
func (s *PostService) DeletePost(ctx context.Context, postID, userID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsAuthor(userID) {
		return pkgerrors.NewForbiddenError("You are not authorized to delete this post")
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	if post.Image != "" {
		s.deleteBlob(ctx, post.Image)
	}

	publishEvent(ctx, s.eventBus, s.logger, events.NewPostDeleted(postID, userID, utils.NowUTC()))
	return nil
}

// GetPost returns a single post with its authors resolved
func (s *PostService) GetPost(ctx context.Context, postID string) (*entities.PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	views, err := s.buildViews(ctx, []*entities.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ToggleLike likes or unlikes a post. Only a like by someone other than the
// author produces a notification.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*entities.PostView, error) {
	var liked bool
	post, err := s.modify(ctx, postID, func(p *entities.Post) error {
		liked = p.ToggleLike(userID, utils.NowUTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if liked && !post.IsAuthor(userID) {
		if err := s.notifier.Notify(ctx, post.AuthorID, entities.NotificationLike, userID, post.ID); err != nil {
			s.logger.Error("Failed to create like notification", zap.String("postID", post.ID), zap.Error(err))
		}
	}
	publishEvent(ctx, s.eventBus, s.logger, events.NewPostLiked(post.ID, userID, liked, post.UpdatedAt))

	views, err := s.buildViews(ctx, []*entities.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// AddComment appends a comment. A comment on someone else's post notifies
// the author in app and by email.
func (s *PostService) AddComment(ctx context.Context, postID, userID string, req CommentRequest) (*entities.PostView, error) {
	commenter, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var comment entities.Comment
	post, err := s.modify(ctx, postID, func(p *entities.Post) error {
		c, err := p.AddComment(userID, req.Content, s.cfg.MaxCommentLength, utils.NowUTC())
		comment = c
		return err
	})
	if err != nil {
		return nil, err
	}

	if !post.IsAuthor(userID) {
		if err := s.notifier.Notify(ctx, post.AuthorID, entities.NotificationComment, userID, post.ID); err != nil {
			s.logger.Error("Failed to create comment notification", zap.String("postID", post.ID), zap.Error(err))
		}
		s.enqueueCommentEmail(ctx, post, commenter, comment)
	}
	publishEvent(ctx, s.eventBus, s.logger, events.NewPostCommented(post.ID, comment.ID, userID, comment.CreatedAt))

	views, err := s.buildViews(ctx, []*entities.Post{post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// modify applies change to the latest version of a post and writes it back
// under a version condition, retrying when a concurrent writer got there
// first.
func (s *PostService) modify(ctx context.Context, postID string, change func(*entities.Post) error) (*entities.Post, error) {
	attempts := s.cfg.MaxLikeRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		post, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}

		expected := post.Version
		if err := change(post); err != nil {
			return nil, err
		}

		err = s.posts.Update(ctx, post, expected)
		if err == nil {
			return post, nil
		}
		if !isConcurrentModification(err) {
			return nil, err
		}

		lastErr = err
		s.logger.Debug("Retrying post update after concurrent modification",
			zap.String("postID", postID),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, lastErr
}

func isConcurrentModification(err error) bool {
	appErr := pkgerrors.GetAppError(err)
	return appErr != nil && appErr.Type == pkgerrors.ErrorTypeConflict && appErr.Code == ports.CodeConcurrentModification
}

// GetFeed returns posts by the user's connections, newest first. The user's
// own posts are not part of the feed.
func (s *PostService) GetFeed(ctx context.Context, userID string) ([]entities.PostView, error) {
	ctx, span := s.tracer.Start(ctx, "GetFeed")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Connections) == 0 {
		return []entities.PostView{}, nil
	}

	posts, err := s.posts.ListByAuthors(ctx, user.Connections, s.cfg.MaxFeedPosts)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return s.buildViews(ctx, posts)
}

// buildViews resolves post and comment authors with a single batch read
func (s *PostService) buildViews(ctx context.Context, posts []*entities.Post) ([]entities.PostView, error) {
	var ids []string
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
		for _, c := range p.Comments {
			ids = append(ids, c.UserID)
		}
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	summaries := make(map[string]entities.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}
	summary := func(id string) entities.UserSummary {
		if sum, ok := summaries[id]; ok {
			return sum
		}
		return entities.UserSummary{ID: id}
	}

	views := make([]entities.PostView, 0, len(posts))
	for _, p := range posts {
		comments := make([]entities.CommentView, 0, len(p.Comments))
		for _, c := range p.Comments {
			comments = append(comments, entities.CommentView{
				ID:        c.ID,
				Content:   c.Content,
				User:      summary(c.UserID),
				CreatedAt: c.CreatedAt,
			})
		}
		views = append(views, entities.PostView{
			ID:        p.ID,
			Author:    summary(p.AuthorID),
			Content:   p.Content,
			Image:     p.Image,
			Likes:     append([]string{}, p.Likes...),
			Comments:  comments,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return views, nil
}

func (s *PostService) enqueueCommentEmail(ctx context.Context, post *entities.Post, commenter *entities.User, comment entities.Comment) {
	if s.emails == nil {
		return
	}
	author, err := s.users.GetByID(ctx, post.AuthorID)
	if err != nil {
		s.logger.Warn("Skipping comment email", zap.String("postID", post.ID), zap.Error(err))
		return
	}

	postURL := fmt.Sprintf("%s/post/%s", s.clientURL, post.ID)
	email, err := CommentEmail(author.Email, author.Name, commenter.Name, postURL, comment.Content)
	if err != nil {
		s.logger.Error("Failed to build comment email", zap.Error(err))
		return
	}
	s.emails.Enqueue(email)
}

func (s *PostService) deleteBlob(ctx context.Context, ref string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.logger.Warn("Failed to delete post image", zap.String("ref", ref), zap.Error(err))
	}
}
