package auth

import "context"

// CreateUserParams carries the fields for a new staff user.
type CreateUserParams struct {
	Name     string
	UserID   string
	Password string
	Role     string
	IsAdmin  bool
}

// UpdateUserParams carries a partial staff-user update. Nil fields are left
// unchanged.
type UpdateUserParams struct {
	Name    *string
	Role    *string
	IsAdmin *bool
	Active  *bool
}

// Service defines the interface for the authentication service.
type Service interface {
	Login(ctx context.Context, userID, password string) (string, *User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	UpdateUser(ctx context.Context, userID string, params UpdateUserParams) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}
