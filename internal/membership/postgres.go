package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"libradesk/internal/db"
)

const membershipColumns = `id, membership_id, first_name, last_name, contact_number,
	contact_address, aadhar_card_no, start_date, end_date, membership_type, status,
	amount_pending, created_at`

// PostgresStore implements Store on top of a PostgreSQL pool.
type PostgresStore struct {
	pool *sql.DB
}

// NewPostgresStore creates a membership store backed by the given pool.
func NewPostgresStore(pool *sql.DB) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) NextSequence(ctx context.Context, scope string) (int64, error) {
	return db.NextSequence(ctx, s.pool, scope)
}

func (s *PostgresStore) Insert(ctx context.Context, m *Membership) error {
	_, err := s.pool.ExecContext(ctx, `
		INSERT INTO memberships (id, membership_id, first_name, last_name, contact_number,
			contact_address, aadhar_card_no, start_date, end_date, membership_type, status,
			amount_pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, m.ID, m.MembershipID, m.FirstName, m.LastName, m.ContactNumber, m.ContactAddress,
		m.AadharCardNo, m.StartDate, m.EndDate, m.MembershipType, m.Status, m.AmountPending)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateAadhar
		}
		return err
	}
	return nil
}

func (s *PostgresStore) ByID(ctx context.Context, membershipID string) (*Membership, error) {
	row := s.pool.QueryRowContext(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE membership_id = $1
	`, membershipID)
	return scanMembership(row)
}

func (s *PostgresStore) Update(ctx context.Context, m *Membership) error {
	_, err := s.pool.ExecContext(ctx, `
		UPDATE memberships
		SET first_name = $1, last_name = $2, contact_number = $3, contact_address = $4,
			end_date = $5, membership_type = $6, status = $7, amount_pending = $8
		WHERE membership_id = $9
	`, m.FirstName, m.LastName, m.ContactNumber, m.ContactAddress, m.EndDate,
		m.MembershipType, m.Status, m.AmountPending, m.MembershipID)
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]Membership, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()
	return scanMemberships(rows)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status string) ([]Membership, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE status = $1
		ORDER BY first_name, last_name
	`, status)
	if err != nil {
		return nil, fmt.Errorf("listing memberships by status: %w", err)
	}
	defer rows.Close()
	return scanMemberships(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*Membership, error) {
	m := &Membership{}
	err := row.Scan(&m.ID, &m.MembershipID, &m.FirstName, &m.LastName, &m.ContactNumber,
		&m.ContactAddress, &m.AadharCardNo, &m.StartDate, &m.EndDate, &m.MembershipType,
		&m.Status, &m.AmountPending, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning membership: %w", err)
	}
	return m, nil
}

func scanMemberships(rows *sql.Rows) ([]Membership, error) {
	var memberships []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *m)
	}
	return memberships, rows.Err()
}
