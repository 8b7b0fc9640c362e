package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

// User is a staff account that can operate the back office.
type User struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Role         string    `json:"role"`
	IsAdmin      bool      `json:"isAdmin"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the verified identity attached to a request. Circulation
// records attribute operations to Principal.UserID; an absent principal is
// recorded as "system".
type Principal struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

// SystemPrincipal is used when no authenticated principal is present.
var SystemPrincipal = Principal{UserID: "system", Name: "system"}
