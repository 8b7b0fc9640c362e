package fine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const fineColumns = `id, fine_id, issue_id, membership_id, serial_no, item_name,
	issue_date, return_date, actual_return_date, days_overdue, fine_amount,
	fine_paid, paid_date, remarks`

// PostgresStore implements Store on top of a PostgreSQL pool.
type PostgresStore struct {
	pool *sql.DB
}

// NewPostgresStore creates a fine store backed by the given pool.
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

func (s *PostgresStore) ByID(ctx context.Context, fineID string) (*Fine, error) {
	row := s.pool.QueryRowContext(ctx, `
		SELECT `+fineColumns+`
		FROM fines
		WHERE fine_id = $1
	`, fineID)
	return scanFine(row)
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]Fine, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+fineColumns+`
		FROM fines
		WHERE fine_paid = FALSE
		ORDER BY return_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing pending fines: %w", err)
	}
	defer rows.Close()
	return scanFines(rows)
}

func (s *PostgresStore) ListByMember(ctx context.Context, membershipID string, unpaidOnly bool) ([]Fine, error) {
	query := `SELECT ` + fineColumns + ` FROM fines WHERE membership_id = $1`
	if unpaidOnly {
		query += ` AND fine_paid = FALSE`
	}
	query += ` ORDER BY return_date DESC`

	rows, err := s.pool.QueryContext(ctx, query, membershipID)
	if err != nil {
		return nil, fmt.Errorf("listing fines by member: %w", err)
	}
	defer rows.Close()
	return scanFines(rows)
}

// postgresTx implements Tx on an open transaction.
type postgresTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *postgresTx) FineByID(fineID string) (*Fine, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT `+fineColumns+`
		FROM fines
		WHERE fine_id = $1
		FOR UPDATE
	`, fineID)
	return scanFine(row)
}

func (t *postgresTx) MarkPaid(fine *Fine) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE fines
		SET fine_paid = $1, paid_date = $2, remarks = $3
		WHERE fine_id = $4
	`, fine.FinePaid, fine.PaidDate, fine.Remarks, fine.FineID)
	return err
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFine(row rowScanner) (*Fine, error) {
	f := &Fine{}
	err := row.Scan(&f.ID, &f.FineID, &f.IssueID, &f.MembershipID, &f.SerialNo, &f.ItemName,
		&f.IssueDate, &f.ReturnDate, &f.ActualReturnDate, &f.DaysOverdue, &f.FineAmount,
		&f.FinePaid, &f.PaidDate, &f.Remarks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning fine: %w", err)
	}
	return f, nil
}

func scanFines(rows *sql.Rows) ([]Fine, error) {
	var fines []Fine
	for rows.Next() {
		f, err := scanFine(rows)
		if err != nil {
			return nil, err
		}
		fines = append(fines, *f)
	}
	return fines, rows.Err()
}
