package services

import (
	"context"
	"sync"

	"hirenest/application/ports"
	"hirenest/domain/core/entities"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notifier records in-app notifications
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind entities.NotificationType, relatedUserID, relatedPostID string) error
}

// NotificationService lists and manages a user's notifications
type NotificationService struct {
	notifications ports.NotificationRepository
	users         ports.UserRepository
	posts         ports.PostRepository
	logger        *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifications ports.NotificationRepository,
	users ports.UserRepository,
	posts ports.PostRepository,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		posts:         posts,
		logger:        logger,
	}
}

var _ Notifier = (*NotificationService)(nil)

// Notify stores a new unread notification
func (s *NotificationService) Notify(ctx context.Context, recipientID string, kind entities.NotificationType, relatedUserID, relatedPostID string) error {
	n, err := entities.NewNotification(recipientID, kind, relatedUserID, relatedPostID, utils.NowUTC())
	if err != nil {
		return err
	}
	return s.notifications.Create(ctx, n)
}

// List returns the user's notifications newest first, with the related user
// and post resolved. Related records that no longer exist are left empty.
func (s *NotificationService) List(ctx context.Context, userID string) ([]entities.NotificationView, error) {
	notifications, err := s.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(notifications))
	postIDs := make(map[string]struct{})
	for _, n := range notifications {
		if n.RelatedUserID != "" {
			userIDs = append(userIDs, n.RelatedUserID)
		}
		if n.RelatedPostID != "" {
			postIDs[n.RelatedPostID] = struct{}{}
		}
	}

	related, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	users := make(map[string]entities.UserSummary, len(related))
	for _, u := range related {
		users[u.ID] = u.Summary()
	}

	posts, err := s.loadExcerpts(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	views := make([]entities.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		view := entities.NotificationView{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			Type:        n.Type,
			Read:        n.Read,
			CreatedAt:   n.CreatedAt,
		}
		if u, ok := users[n.RelatedUserID]; ok {
			view.RelatedUser = &u
		}
		if p, ok := posts[n.RelatedPostID]; ok {
			view.RelatedPost = p
		}
		views = append(views, view)
	}
	return views, nil
}

// loadExcerpts fetches the referenced posts concurrently
func (s *NotificationService) loadExcerpts(ctx context.Context, ids map[string]struct{}) (map[string]*entities.PostExcerpt, error) {
	var mu sync.Mutex
	excerpts := make(map[string]*entities.PostExcerpt, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for id := range ids {
		id := id
		g.Go(func() error {
			post, err := s.posts.GetByID(gctx, id)
			if err != nil {
				if pkgerrors.IsNotFound(err) {
					return nil
				}
				return err
			}
			mu.Lock()
			excerpts[id] = &entities.PostExcerpt{ID: post.ID, Content: post.Content, Image: post.Image}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return excerpts, nil
}

// MarkRead marks a notification owned by userID as read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("notification id is required")
	}
	return s.notifications.MarkRead(ctx, id, userID)
}

// Delete removes a notification owned by userID
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	if id == "" {
		return pkgerrors.NewValidationError("notification id is required")
	}
	return s.notifications.Delete(ctx, id, userID)
}
