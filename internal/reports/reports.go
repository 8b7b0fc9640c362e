// Package reports builds read-only back office queries. Filters are
// optional, so the SQL is assembled dynamically with goqu instead of
// hand-concatenated fragments.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"libradesk/internal/circulation"
	"libradesk/internal/fine"
)

const dialect = "postgres"

// ItemRow is one line of the master item report.
type ItemRow struct {
	SerialNo        string    `json:"serialNo"`
	Name            string    `json:"name"`
	CreatorName     string    `json:"creatorName"`
	Category        string    `json:"category"`
	Status          string    `json:"status"`
	Cost            float64   `json:"cost"`
	ProcurementDate time.Time `json:"procurementDate"`
	Quantity        int       `json:"quantity"`
	AvailableCopies int       `json:"availableCopies"`
}

// MembershipRow is one line of the master membership report.
type MembershipRow struct {
	MembershipID   string    `json:"membershipId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	ContactNumber  string    `json:"contactNumber"`
	MembershipType string    `json:"membershipType"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Status         string    `json:"status"`
	AmountPending  float64   `json:"amountPending"`
}

// ItemFilter narrows the master item report.
type ItemFilter struct {
	Category string
	Status   string
}

// MembershipFilter narrows the master membership report.
type MembershipFilter struct {
	Status string
}

// Service runs the report queries against a read-only pool handle.
type Service struct {
	pool *sql.DB
}

func NewService(pool *sql.DB) *Service {
	return &Service{pool: pool}
}

// MasterItems lists catalog items of one type with optional category and
// status filters.
func (s *Service) MasterItems(ctx context.Context, itemType string, filter ItemFilter) ([]ItemRow, error) {
	stmt := goqu.Dialect(dialect).
		From("items").
		Select("serial_no", "name", "creator_name", "category", "status", "cost",
			"procurement_date", "quantity", "available_copies").
		Where(goqu.Ex{"type": itemType}).
		Order(goqu.I("serial_no").Asc())

	if filter.Category != "" {
		stmt = stmt.Where(goqu.Ex{"category": filter.Category})
	}
	if filter.Status != "" {
		stmt = stmt.Where(goqu.Ex{"status": filter.Status})
	}

	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building item report query: %w", err)
	}

	rows, err := s.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running item report: %w", err)
	}
	defer rows.Close()

	var report []ItemRow
	for rows.Next() {
		var row ItemRow
		if err := rows.Scan(&row.SerialNo, &row.Name, &row.CreatorName, &row.Category,
			&row.Status, &row.Cost, &row.ProcurementDate, &row.Quantity,
			&row.AvailableCopies); err != nil {
			return nil, fmt.Errorf("scanning item report row: %w", err)
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// MasterMemberships lists memberships with an optional status filter.
func (s *Service) MasterMemberships(ctx context.Context, filter MembershipFilter) ([]MembershipRow, error) {
	stmt := goqu.Dialect(dialect).
		From("memberships").
		Select("membership_id", "first_name", "last_name", "contact_number",
			"membership_type", "start_date", "end_date", "status", "amount_pending").
		Order(goqu.I("membership_id").Asc())

	if filter.Status != "" {
		stmt = stmt.Where(goqu.Ex{"status": filter.Status})
	}

	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building membership report query: %w", err)
	}

	rows, err := s.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running membership report: %w", err)
	}
	defer rows.Close()

	var report []MembershipRow
	for rows.Next() {
		var row MembershipRow
		if err := rows.Scan(&row.MembershipID, &row.FirstName, &row.LastName,
			&row.ContactNumber, &row.MembershipType, &row.StartDate, &row.EndDate,
			&row.Status, &row.AmountPending); err != nil {
			return nil, fmt.Errorf("scanning membership report row: %w", err)
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// ActiveIssues lists open issues, optionally narrowed to one member.
func (s *Service) ActiveIssues(ctx context.Context, membershipID string) ([]circulation.Issue, error) {
	stmt := goqu.Dialect(dialect).
		From("issues").
		Select("id", "issue_id", "serial_no", "item_name", "item_type", "author_name",
			"membership_id", "member_name", "issue_date", "return_date",
			"actual_return_date", "status", "remarks", "issued_by").
		Where(goqu.Ex{"status": circulation.StatusIssued}).
		Order(goqu.I("issue_date").Desc())

	if membershipID != "" {
		stmt = stmt.Where(goqu.Ex{"membership_id": membershipID})
	}
	return s.queryIssues(ctx, stmt)
}

// OverdueReturns lists open issues past due as of now, with the fine each
// would accrue if returned now.
func (s *Service) OverdueReturns(ctx context.Context) ([]circulation.OverdueIssue, error) {
	now := time.Now()
	stmt := goqu.Dialect(dialect).
		From("issues").
		Select("id", "issue_id", "serial_no", "item_name", "item_type", "author_name",
			"membership_id", "member_name", "issue_date", "return_date",
			"actual_return_date", "status", "remarks", "issued_by").
		Where(goqu.Ex{"status": circulation.StatusIssued}).
		Where(goqu.C("return_date").Lt(now)).
		Order(goqu.I("return_date").Asc())

	issues, err := s.queryIssues(ctx, stmt)
	if err != nil {
		return nil, err
	}

	overdue := make([]circulation.OverdueIssue, 0, len(issues))
	for _, issue := range issues {
		projection := fine.Project(issue.ReturnDate, now)
		overdue = append(overdue, circulation.OverdueIssue{
			Issue:       issue,
			DaysOverdue: projection.DaysOverdue,
			FineAmount:  projection.FineAmount,
		})
	}
	return overdue, nil
}

// PendingFines lists unpaid fines, optionally narrowed to one member.
func (s *Service) PendingFines(ctx context.Context, membershipID string) ([]fine.Fine, error) {
	stmt := goqu.Dialect(dialect).
		From("fines").
		Select("id", "fine_id", "issue_id", "membership_id", "serial_no", "item_name",
			"issue_date", "return_date", "actual_return_date", "days_overdue",
			"fine_amount", "fine_paid", "paid_date", "remarks").
		Where(goqu.Ex{"fine_paid": false}).
		Order(goqu.I("return_date").Desc())

	if membershipID != "" {
		stmt = stmt.Where(goqu.Ex{"membership_id": membershipID})
	}

	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building pending fines query: %w", err)
	}

	rows, err := s.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running pending fines report: %w", err)
	}
	defer rows.Close()

	var fines []fine.Fine
	for rows.Next() {
		var f fine.Fine
		if err := rows.Scan(&f.ID, &f.FineID, &f.IssueID, &f.MembershipID, &f.SerialNo,
			&f.ItemName, &f.IssueDate, &f.ReturnDate, &f.ActualReturnDate,
			&f.DaysOverdue, &f.FineAmount, &f.FinePaid, &f.PaidDate,
			&f.Remarks); err != nil {
			return nil, fmt.Errorf("scanning fine report row: %w", err)
		}
		fines = append(fines, f)
	}
	return fines, rows.Err()
}

func (s *Service) queryIssues(ctx context.Context, stmt *goqu.SelectDataset) ([]circulation.Issue, error) {
	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building issue report query: %w", err)
	}

	rows, err := s.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running issue report: %w", err)
	}
	defer rows.Close()

	var issues []circulation.Issue
	for rows.Next() {
		var issue circulation.Issue
		if err := rows.Scan(&issue.ID, &issue.IssueID, &issue.SerialNo, &issue.ItemName,
			&issue.ItemType, &issue.AuthorName, &issue.MembershipID, &issue.MemberName,
			&issue.IssueDate, &issue.ReturnDate, &issue.ActualReturnDate, &issue.Status,
			&issue.Remarks, &issue.IssuedBy); err != nil {
			return nil, fmt.Errorf("scanning issue report row: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}
