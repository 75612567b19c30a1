package services

import (
	"context"
	"fmt"
	"strings"

	"hirenest/application/ports"
	"hirenest/domain/config"
	"hirenest/domain/core/entities"
	"hirenest/domain/events"
	"hirenest/pkg/auth"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/utils"

	"go.uber.org/zap"
)

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenIssuer issues session tokens
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// TokenValidator validates session tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthService handles account creation and sessions
type AuthService struct {
	users     ports.UserRepository
	issuer    TokenIssuer
	validator TokenValidator
	emails    ports.EmailQueue
	eventBus  ports.EventBus
	cfg       *config.DomainConfig
	clientURL string
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users ports.UserRepository,
	issuer TokenIssuer,
	validator TokenValidator,
	emails ports.EmailQueue,
	eventBus ports.EventBus,
	cfg *config.DomainConfig,
	clientURL string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		issuer:    issuer,
		validator: validator,
		emails:    emails,
		eventBus:  eventBus,
		cfg:       cfg,
		clientURL: clientURL,
		logger:    logger,
	}
}

// Signup creates an account and returns it with a session token
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*entities.User, string, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, "", pkgerrors.NewValidationError("All fields are required")
	}
	if len(req.Password) < s.cfg.MinPasswordLength {
		return nil, "", pkgerrors.NewValidationError(
			fmt.Sprintf("Password must be at least %d characters", s.cfg.MinPasswordLength))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", pkgerrors.NewInternalError("failed to hash password").WithCause(err)
	}

	user, err := entities.NewUser(s.cfg, strings.TrimSpace(req.Name), req.Username, req.Email, hash, utils.NowUTC())
	if err != nil {
		return nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Duplicate handles are reported as bad input, like any other field error
		if appErr := pkgerrors.GetAppError(err); appErr != nil && appErr.Type == pkgerrors.ErrorTypeConflict {
			return nil, "", pkgerrors.NewValidationError(appErr.Message).WithCode(appErr.Code)
		}
		return nil, "", err
	}

	token, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return nil, "", pkgerrors.NewInternalError("failed to issue session token").WithCause(err)
	}

	s.publish(ctx, events.NewUserRegistered(user.ID, user.Username, user.CreatedAt))
	s.enqueueWelcome(user)

	s.logger.Info("User signed up", zap.String("userID", user.ID), zap.String("username", user.Username))
	return user, token, nil
}

// Login verifies credentials and returns the user with a new session token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*entities.User, string, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, "", pkgerrors.NewValidationError("All fields are required")
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, "", invalidCredentials()
		}
		return nil, "", err
	}
	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return nil, "", invalidCredentials()
	}

	token, err := s.issuer.GenerateToken(user.ID)
	if err != nil {
		return nil, "", pkgerrors.NewInternalError("failed to issue session token").WithCause(err)
	}
	return user, token, nil
}

func invalidCredentials() error {
	return pkgerrors.NewValidationError("Invalid credentials").WithCode("INVALID_CREDENTIALS")
}

// Authenticate resolves a session token to its user. Every failure,
// including a deleted user, is reported as Unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	claims, err := s.validator.ValidateToken(token)
	if err != nil {
		s.logger.Debug("Rejected session token", zap.Error(err))
		return nil, pkgerrors.NewUnauthorizedError("")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewUnauthorizedError("")
		}
		return nil, err
	}
	return user, nil
}

// Me returns the current user's record
func (s *AuthService) Me(ctx context.Context, userID string) (*entities.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) enqueueWelcome(user *entities.User) {
	if s.emails == nil {
		return
	}
	profileURL := fmt.Sprintf("%s/profile/%s", s.clientURL, user.Username)
	email, err := WelcomeEmail(user.Email, user.Name, profileURL)
	if err != nil {
		s.logger.Error("Failed to build welcome email", zap.Error(err))
		return
	}
	s.emails.Enqueue(email)
}

func (s *AuthService) publish(ctx context.Context, event events.DomainEvent) {
	publishEvent(ctx, s.eventBus, s.logger, event)
}

// publishEvent publishes a single event after the write it describes has
// committed. Failures are logged only.
func publishEvent(ctx context.Context, bus ports.EventBus, logger *zap.Logger, event events.DomainEvent) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish domain event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
