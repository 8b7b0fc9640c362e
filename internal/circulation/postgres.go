package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"libradesk/internal/catalog"
	"libradesk/internal/db"
	"libradesk/internal/fine"
	"libradesk/internal/membership"
)

const issueColumns = `id, issue_id, serial_no, item_name, item_type, author_name,
	membership_id, member_name, issue_date, return_date, actual_return_date,
	status, remarks, issued_by`

// PostgresStore implements Store on top of a PostgreSQL pool.
type PostgresStore struct {
	pool *sql.DB
}

// NewPostgresStore creates a circulation store backed by the given pool.
func NewPostgresStore(pool *sql.DB) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// WithTx runs fn inside a single database transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	txn, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer txn.Rollback()

	if err := fn(&postgresTx{ctx: ctx, tx: txn}); err != nil {
		return err
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]Issue, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE status = 'Issued'
		ORDER BY issue_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing active issues: %w", err)
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (s *PostgresStore) ListOverdue(ctx context.Context, asOf time.Time) ([]Issue, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE status = 'Issued' AND return_date < $1
		ORDER BY return_date
	`, asOf)
	if err != nil {
		return nil, fmt.Errorf("listing overdue issues: %w", err)
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (s *PostgresStore) ListByMember(ctx context.Context, membershipID string) ([]Issue, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE membership_id = $1
		ORDER BY issue_date DESC
	`, membershipID)
	if err != nil {
		return nil, fmt.Errorf("listing issues by member: %w", err)
	}
	defer rows.Close()
	return scanIssues(rows)
}

// postgresTx implements Tx on an open transaction.
type postgresTx struct {
	ctx context.Context
	tx  *sql.Tx
}

// ItemForUpdate loads an item and locks its row until the transaction ends.
// The lock serializes concurrent issues and returns of the same item.
func (t *postgresTx) ItemForUpdate(serialNo, itemType string) (*catalog.Item, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT id, serial_no, name, creator_name, category, status, cost,
			procurement_date, type, quantity, available_copies, created_at, updated_at
		FROM items
		WHERE serial_no = $1 AND type = $2
		FOR UPDATE
	`, serialNo, itemType)

	item := &catalog.Item{}
	err := row.Scan(&item.ID, &item.SerialNo, &item.Name, &item.CreatorName, &item.Category,
		&item.Status, &item.Cost, &item.ProcurementDate, &item.Type, &item.Quantity,
		&item.AvailableCopies, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}
	return item, nil
}

func (t *postgresTx) SaveItemAvailability(item *catalog.Item) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE items
		SET status = $1, available_copies = $2, updated_at = NOW()
		WHERE serial_no = $3 AND type = $4
	`, item.Status, item.AvailableCopies, item.SerialNo, item.Type)
	return err
}

func (t *postgresTx) MembershipByID(membershipID string) (*membership.Membership, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT id, membership_id, first_name, last_name, contact_number,
			contact_address, aadhar_card_no, start_date, end_date, membership_type,
			status, amount_pending, created_at
		FROM memberships
		WHERE membership_id = $1
	`, membershipID)

	m := &membership.Membership{}
	err := row.Scan(&m.ID, &m.MembershipID, &m.FirstName, &m.LastName, &m.ContactNumber,
		&m.ContactAddress, &m.AadharCardNo, &m.StartDate, &m.EndDate, &m.MembershipType,
		&m.Status, &m.AmountPending, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, membership.ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning membership: %w", err)
	}
	return m, nil
}

// AddPendingAmount shifts a membership's pending balance. A guest loan has
// no membership row, so a zero-row update is not an error.
func (t *postgresTx) AddPendingAmount(membershipID string, delta float64) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE memberships
		SET amount_pending = amount_pending + $1
		WHERE membership_id = $2
	`, delta, membershipID)
	return err
}

func (t *postgresTx) NextSequence(scope string) (int64, error) {
	return db.NextSequence(t.ctx, t.tx, scope)
}

func (t *postgresTx) InsertIssue(issue *Issue) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO issues (`+issueColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, issue.ID, issue.IssueID, issue.SerialNo, issue.ItemName, issue.ItemType,
		issue.AuthorName, issue.MembershipID, issue.MemberName, issue.IssueDate,
		issue.ReturnDate, issue.ActualReturnDate, issue.Status, issue.Remarks,
		issue.IssuedBy)
	return err
}

// MostRecentOpenIssue finds the newest open issue for an item/member pair
// and locks it until the transaction ends.
func (t *postgresTx) MostRecentOpenIssue(serialNo, membershipID string) (*Issue, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE serial_no = $1 AND membership_id = $2 AND status = 'Issued'
		ORDER BY issue_date DESC
		LIMIT 1
		FOR UPDATE
	`, serialNo, membershipID)
	issue, err := scanIssue(row)
	if errors.Is(err, ErrNoActiveIssue) {
		return nil, ErrNoActiveIssue
	}
	return issue, err
}

func (t *postgresTx) UpdateIssue(issue *Issue) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE issues
		SET actual_return_date = $1, status = $2, remarks = $3
		WHERE issue_id = $4
	`, issue.ActualReturnDate, issue.Status, issue.Remarks, issue.IssueID)
	return err
}

func (t *postgresTx) InsertFine(f *fine.Fine) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO fines (id, fine_id, issue_id, membership_id, serial_no, item_name,
			issue_date, return_date, actual_return_date, days_overdue, fine_amount,
			fine_paid, paid_date, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, f.ID, f.FineID, f.IssueID, f.MembershipID, f.SerialNo, f.ItemName,
		f.IssueDate, f.ReturnDate, f.ActualReturnDate, f.DaysOverdue, f.FineAmount,
		f.FinePaid, f.PaidDate, f.Remarks)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*Issue, error) {
	issue := &Issue{}
	err := row.Scan(&issue.ID, &issue.IssueID, &issue.SerialNo, &issue.ItemName,
		&issue.ItemType, &issue.AuthorName, &issue.MembershipID, &issue.MemberName,
		&issue.IssueDate, &issue.ReturnDate, &issue.ActualReturnDate, &issue.Status,
		&issue.Remarks, &issue.IssuedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveIssue
	}
	if err != nil {
		return nil, fmt.Errorf("scanning issue: %w", err)
	}
	return issue, nil
}

func scanIssues(rows *sql.Rows) ([]Issue, error) {
	var issues []Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, rows.Err()
}
