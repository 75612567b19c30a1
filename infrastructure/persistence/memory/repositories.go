package memory

import (
	"context"
	"sort"
	"strings"

	"hirenest/application/ports"
	"hirenest/domain/core/entities"
	pkgerrors "hirenest/pkg/errors"
)

// UserRepository implements ports.UserRepository
type UserRepository struct {
	store *Store
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return pkgerrors.NewConflictError("Email already exists").WithCode(ports.CodeEmailTaken)
	}
	if _, taken := s.usernames[strings.ToLower(user.Username)]; taken {
		return pkgerrors.NewConflictError("Username already exists").WithCode(ports.CodeUsernameTaken)
	}

	s.users[user.ID] = copyUser(user)
	s.usernames[strings.ToLower(user.Username)] = user.ID
	s.emails[user.Email] = user.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("User")
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	s := r.store
	s.mu.RLock()
	id, ok := s.usernames[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewNotFoundError("User")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	s := r.store
	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewNotFoundError("User")
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*entities.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *entities.User, previousUsername string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return pkgerrors.NewNotFoundError("User")
	}

	newKey := strings.ToLower(user.Username)
	oldKey := strings.ToLower(previousUsername)
	if newKey != oldKey {
		if owner, taken := s.usernames[newKey]; taken && owner != user.ID {
			return pkgerrors.NewConflictError("Username already exists").WithCode(ports.CodeUsernameTaken)
		}
		delete(s.usernames, oldKey)
		s.usernames[newKey] = user.ID
	}

	// Edge sets are owned by the connection repository.
	updated := copyUser(user)
	updated.Connections = stored.Connections
	updated.Followers = stored.Followers
	updated.Following = stored.Following
	updated.PasswordHash = stored.PasswordHash
	updated.Email = stored.Email
	s.users[user.ID] = updated
	return nil
}

func (r *UserRepository) ListSuggestions(ctx context.Context, exclude []string, limit int) ([]*entities.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	candidates := make([]*entities.User, 0)
	for id, u := range s.users {
		if _, excluded := skip[id]; !excluded {
			candidates = append(candidates, u)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	result := make([]*entities.User, 0, len(candidates))
	for _, u := range candidates {
		result = append(result, copyUser(u))
	}
	return result, nil
}

// ConnectionRepository implements ports.ConnectionRepository
type ConnectionRepository struct {
	store *Store
}

var _ ports.ConnectionRepository = (*ConnectionRepository)(nil)

func (r *ConnectionRepository) CreateRequest(ctx context.Context, req *entities.ConnectionRequest) (*entities.ConnectionRequest, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(req.SenderID(), req.RecipientID())
	if existingID, ok := s.pendingPairs[key]; ok {
		return copyRequest(s.requests[existingID]), false, nil
	}

	s.requests[req.ID()] = copyRequest(req)
	s.pendingPairs[key] = req.ID()
	return copyRequest(req), true, nil
}

func (r *ConnectionRepository) GetRequest(ctx context.Context, id string) (*entities.ConnectionRequest, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("Connection request")
	}
	return copyRequest(req), nil
}

func (r *ConnectionRepository) FindPending(ctx context.Context, senderID, recipientID string) (*entities.ConnectionRequest, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.pendingPairs[pairKey(senderID, recipientID)]; ok {
		return copyRequest(s.requests[id]), nil
	}
	return nil, nil
}

func (r *ConnectionRepository) ListIncoming(ctx context.Context, recipientID string) ([]*entities.ConnectionRequest, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entities.ConnectionRequest, 0)
	for _, req := range s.requests {
		if req.RecipientID() == recipientID && req.IsPending() {
			result = append(result, copyRequest(req))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt().After(result[j].CreatedAt())
	})
	return result, nil
}

func (r *ConnectionRepository) Accept(ctx context.Context, req *entities.ConnectionRequest, notification *entities.Notification) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := r.checkPending(req); err != nil {
		return err
	}
	sender, ok := s.users[req.SenderID()]
	if !ok {
		return pkgerrors.NewNotFoundError("User")
	}
	recipient, ok := s.users[req.RecipientID()]
	if !ok {
		return pkgerrors.NewNotFoundError("User")
	}

	sender.AddConnection(recipient.ID)
	recipient.AddConnection(sender.ID)
	s.requests[req.ID()] = copyRequest(req)
	delete(s.pendingPairs, pairKey(req.SenderID(), req.RecipientID()))
	if notification != nil {
		s.notifications[notification.ID] = copyNotification(notification)
	}
	return nil
}

func (r *ConnectionRepository) Reject(ctx context.Context, req *entities.ConnectionRequest) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := r.checkPending(req); err != nil {
		return err
	}
	s.requests[req.ID()] = copyRequest(req)
	delete(s.pendingPairs, pairKey(req.SenderID(), req.RecipientID()))
	return nil
}

// checkPending mirrors the conditional write of the DynamoDB implementation.
// Caller holds the lock.
func (r *ConnectionRepository) checkPending(req *entities.ConnectionRequest) error {
	stored, ok := r.store.requests[req.ID()]
	if !ok {
		return pkgerrors.NewNotFoundError("Connection request")
	}
	if !stored.IsPending() {
		return pkgerrors.NewInvalidStateError("Connection request has already been processed")
	}
	return nil
}

func (r *ConnectionRepository) RemoveConnection(ctx context.Context, userID, otherID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		u.RemoveConnection(otherID)
	}
	if o, ok := s.users[otherID]; ok {
		o.RemoveConnection(userID)
	}
	return nil
}

// PostRepository implements ports.PostRepository
type PostRepository struct {
	store *Store
}

var _ ports.PostRepository = (*PostRepository)(nil)

func (r *PostRepository) Create(ctx context.Context, post *entities.Post) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts[post.ID] = copyPost(post)
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*entities.Post, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("Post")
	}
	return copyPost(p), nil
}

func (r *PostRepository) Update(ctx context.Context, post *entities.Post, expectedVersion int) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[post.ID]
	if !ok {
		return pkgerrors.NewNotFoundError("Post")
	}
	if stored.Version != expectedVersion {
		return pkgerrors.NewConflictError("post was modified concurrently").WithCode(ports.CodeConcurrentModification)
	}

	updated := copyPost(post)
	updated.Version = expectedVersion + 1
	post.Version = updated.Version
	s.posts[post.ID] = updated
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.posts, id)
	return nil
}

func (r *PostRepository) ListByAuthors(ctx context.Context, authorIDs []string, limit int) ([]*entities.Post, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	authors := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	result := make([]*entities.Post, 0)
	for _, p := range s.posts {
		if _, ok := authors[p.AuthorID]; ok {
			result = append(result, copyPost(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// NotificationRepository implements ports.NotificationRepository
type NotificationRepository struct {
	store *Store
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications[notification.ID] = copyNotification(notification)
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*entities.Notification, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entities.Notification, 0)
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			result = append(result, copyNotification(n))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) (*entities.Notification, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return nil, pkgerrors.NewNotFoundError("Notification")
	}
	n.Read = true
	return copyNotification(n), nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return pkgerrors.NewNotFoundError("Notification")
	}
	delete(s.notifications, id)
	return nil
}
