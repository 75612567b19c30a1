package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

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

// UserService serves profiles and suggestions and applies profile updates
type UserService struct {
	users    ports.UserRepository
	blobs    ports.BlobStore
	cache    ports.Cache
	cacheTTL time.Duration
	eventBus ports.EventBus
	cfg      *config.DomainConfig
	tracer   *observability.Tracer
	logger   *zap.Logger
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(
	users ports.UserRepository,
	blobs ports.BlobStore,
	cache ports.Cache,
	cacheTTL time.Duration,
	eventBus ports.EventBus,
	cfg *config.DomainConfig,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:    users,
		blobs:    blobs,
		cache:    cache,
		cacheTTL: cacheTTL,
		eventBus: eventBus,
		cfg:      cfg,
		tracer:   tracer,
		logger:   logger,
	}
}

// ProfileCacheKey is the cache key of the public profile of username
func ProfileCacheKey(username string) string {
	return "profile:" + strings.ToLower(username)
}

// GetProfile returns the public profile of username
func (s *UserService) GetProfile(ctx context.Context, username string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkgerrors.NewValidationError("username is required")
	}

	key := ProfileCacheKey(username)
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			var user entities.User
			if err := json.Unmarshal(data, &user); err == nil {
				return &user, nil
			}
			s.logger.Warn("Discarding unreadable cached profile", zap.String("key", key))
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(user); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.Warn("Failed to cache profile", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return user, nil
}

// Suggestions returns users the caller is not connected to, never the
// caller itself.
func (s *UserService) Suggestions(ctx context.Context, userID string) ([]entities.UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	exclude := append([]string{user.ID}, user.Connections...)
	candidates, err := s.users.ListSuggestions(ctx, exclude, s.cfg.SuggestionLimit)
	if err != nil {
		return nil, err
	}

	result := make([]entities.UserSummary, 0, len(candidates))
	for _, u := range candidates {
		result = append(result, u.Summary())
	}
	return result, nil
}

// UpdateProfile applies changes to the caller's profile. Image and resume
// fields given as data URLs are uploaded first and replaced by their blob
// references; uploads are removed again if the write fails.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, changes entities.ProfileChanges) (*entities.User, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateProfile")
	defer span.End()

	if err := utils.ValidateStruct(changes); err != nil {
		return nil, err
	}
	if changes.Name != nil && strings.TrimSpace(*changes.Name) == "" {
		return nil, pkgerrors.NewValidationError("name cannot be empty")
	}
	if changes.Username != nil {
		username, err := valueobjects.NormalizeUsername(*changes.Username, s.cfg.MaxUsernameLength)
		if err != nil {
			return nil, err
		}
		changes.Username = &username
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploadInline(ctx, userID, &changes)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	previousUsername := user.Username
	changed := changes.Apply(user, utils.NowUTC())
	if len(changed) == 0 {
		return user, nil
	}

	if err := s.users.UpdateProfile(ctx, user, previousUsername); err != nil {
		s.discardUploads(ctx, uploaded)
		observability.RecordError(span, err)
		return nil, err
	}

	s.invalidate(ctx, previousUsername, user.Username)
	publishEvent(ctx, s.eventBus, s.logger, events.NewProfileUpdated(user.ID, changed, user.UpdatedAt))

	s.logger.Info("Profile updated", zap.String("userID", user.ID), zap.Strings("fields", changed))
	return user, nil
}

// uploadInline stores every data URL field and rewrites it to the stored
// reference. It returns the references created.
func (s *UserService) uploadInline(ctx context.Context, userID string, changes *entities.ProfileChanges) ([]string, error) {
	fields := []struct {
		name   string
		value  *string
		accept func(contentType string) bool
	}{
		{"profilePicture", changes.ProfilePicture, isImage},
		{"coverPicture", changes.CoverPicture, isImage},
		{"resume", changes.Resume, isDocument},
	}

	var uploaded []string
	for _, f := range fields {
		if f.value == nil || !utils.IsDataURL(*f.value) {
			continue
		}

		payload, err := utils.DecodeDataURL(*f.value)
		if err != nil {
			s.discardUploads(ctx, uploaded)
			return nil, err
		}
		if !f.accept(payload.ContentType) {
			s.discardUploads(ctx, uploaded)
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("%s has unsupported type %s", f.name, payload.ContentType))
		}

		key := fmt.Sprintf("users/%s/%s/%s%s", userID, f.name, valueobjects.NewID(), payload.Extension())
		ref, err := s.blobs.Put(ctx, key, payload.Data, payload.ContentType)
		if err != nil {
			s.discardUploads(ctx, uploaded)
			return nil, err
		}
		*f.value = ref
		uploaded = append(uploaded, ref)
	}
	return uploaded, nil
}

func (s *UserService) discardUploads(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
			s.logger.Warn("Failed to remove orphaned upload", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func (s *UserService) invalidate(ctx context.Context, usernames ...string) {
	if s.cache == nil {
		return
	}
	for _, username := range usernames {
		if err := s.cache.Delete(ctx, ProfileCacheKey(username)); err != nil {
			s.logger.Warn("Failed to invalidate cached profile", zap.String("username", username), zap.Error(err))
		}
	}
}

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

func isDocument(contentType string) bool {
	return contentType == "application/pdf" || strings.HasPrefix(contentType, "text/plain")
}
