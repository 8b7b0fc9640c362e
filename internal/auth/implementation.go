package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// UserStore is the persistence interface the auth service depends on.
type UserStore interface {
	Insert(ctx context.Context, user *User) error
	ByUserID(ctx context.Context, userID string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
}

// service implements the Service interface.
type service struct {
	store       UserStore
	secret      string
	logger      *slog.Logger
	rateLimiter *rate.Limiter
}

// NewService creates a new authentication service instance.
func NewService(store UserStore, secret string, logger *slog.Logger) Service {
	return &service{
		store:       store,
		secret:      secret,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/10), 10),
	}
}

// Login verifies the credentials of an active staff user and returns a
// signed session token alongside the user record.
func (s *service) Login(ctx context.Context, userID, password string) (string, *User, error) {
	if !s.rateLimiter.Allow() {
		return "", nil, fmt.Errorf("rate limit exceeded")
	}

	user, err := s.store.ByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}
	if !user.Active {
		return "", nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, Principal{
		UserID:  user.UserID,
		Name:    user.Name,
		Role:    user.Role,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("user logged in", "userId", user.UserID)
	return token, user, nil
}

// GetUser retrieves a staff user by login ID.
func (s *service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.store.ByUserID(ctx, userID)
}

// CreateUser adds a new staff user. Admin only, enforced at the route.
func (s *service) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	if _, err := s.store.ByUserID(ctx, params.UserID); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	hash, salt, err := hashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if params.Role == "" {
		params.Role = "user"
	}

	user := &User{
		ID:           uuid.New(),
		UserID:       params.UserID,
		Name:         params.Name,
		PasswordHash: hash,
		Salt:         salt,
		Role:         params.Role,
		IsAdmin:      params.IsAdmin,
		Active:       true,
	}

	if err := s.store.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Info("user created", "userId", user.UserID, "role", user.Role)
	return user, nil
}

// UpdateUser applies a partial update to a staff user.
func (s *service) UpdateUser(ctx context.Context, userID string, params UpdateUserParams) (*User, error) {
	user, err := s.store.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	if params.IsAdmin != nil {
		user.IsAdmin = *params.IsAdmin
	}
	if params.Active != nil {
		user.Active = *params.Active
	}

	if err := s.store.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

// ListUsers returns all staff users.
func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}
