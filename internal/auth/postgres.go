package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore implements UserStore on top of a PostgreSQL pool.
type PostgresStore struct {
	pool *sql.DB
}

// NewPostgresStore creates a user store backed by the given pool.
func NewPostgresStore(pool *sql.DB) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, user *User) error {
	_, err := s.pool.ExecContext(ctx, `
		INSERT INTO users (id, user_id, name, password_hash, salt, role, is_admin, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.UserID, user.Name, user.PasswordHash, user.Salt, user.Role,
		user.IsAdmin, user.Active)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (s *PostgresStore) ByUserID(ctx context.Context, userID string) (*User, error) {
	user := &User{}
	err := s.pool.QueryRowContext(ctx, `
		SELECT id, user_id, name, password_hash, salt, role, is_admin, active, created_at
		FROM users
		WHERE user_id = $1
	`, userID).Scan(&user.ID, &user.UserID, &user.Name, &user.PasswordHash, &user.Salt,
		&user.Role, &user.IsAdmin, &user.Active, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) Update(ctx context.Context, user *User) error {
	_, err := s.pool.ExecContext(ctx, `
		UPDATE users
		SET name = $1, role = $2, is_admin = $3, active = $4
		WHERE user_id = $5
	`, user.Name, user.Role, user.IsAdmin, user.Active, user.UserID)
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT id, user_id, name, password_hash, salt, role, is_admin, active, created_at
		FROM users
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.UserID, &user.Name, &user.PasswordHash,
			&user.Salt, &user.Role, &user.IsAdmin, &user.Active, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
