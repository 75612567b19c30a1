// Package memory provides process-local implementations of the repository
// ports. All repositories of one Store share a single lock, so the
// multi-record operations are atomic just like their DynamoDB counterparts.
package memory

import (
	"sync"

	"hirenest/domain/core/entities"
)

// Store holds every collection in memory
type Store struct {
	mu sync.RWMutex

	users         map[string]*entities.User
	usernames     map[string]string
	emails        map[string]string
	requests      map[string]*entities.ConnectionRequest
	pendingPairs  map[string]string
	posts         map[string]*entities.Post
	notifications map[string]*entities.Notification
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:         make(map[string]*entities.User),
		usernames:     make(map[string]string),
		emails:        make(map[string]string),
		requests:      make(map[string]*entities.ConnectionRequest),
		pendingPairs:  make(map[string]string),
		posts:         make(map[string]*entities.Post),
		notifications: make(map[string]*entities.Notification),
	}
}

// Users returns the identity store view
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// Connections returns the connection request view
func (s *Store) Connections() *ConnectionRepository {
	return &ConnectionRepository{store: s}
}

// Posts returns the post view
func (s *Store) Posts() *PostRepository {
	return &PostRepository{store: s}
}

// Notifications returns the notification view
func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{store: s}
}

func pairKey(senderID, recipientID string) string {
	return senderID + "|" + recipientID
}

func copyUser(u *entities.User) *entities.User {
	c := *u
	c.Skills = append([]string{}, u.Skills...)
	c.Experience = append([]entities.Experience{}, u.Experience...)
	c.Education = append([]entities.Education{}, u.Education...)
	c.Connections = append([]string{}, u.Connections...)
	c.Followers = append([]string{}, u.Followers...)
	c.Following = append([]string{}, u.Following...)
	return &c
}

func copyPost(p *entities.Post) *entities.Post {
	c := *p
	c.Likes = append([]string{}, p.Likes...)
	c.Comments = append([]entities.Comment{}, p.Comments...)
	return &c
}

func copyRequest(r *entities.ConnectionRequest) *entities.ConnectionRequest {
	return entities.ReconstructConnectionRequest(r.ID(), r.SenderID(), r.RecipientID(), r.Status(), r.CreatedAt(), r.UpdatedAt())
}

func copyNotification(n *entities.Notification) *entities.Notification {
	c := *n
	return &c
}
