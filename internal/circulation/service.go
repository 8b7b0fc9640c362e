package circulation

import (
	"context"
	"time"

	"libradesk/internal/fine"
)

// IssueRequest carries the inputs of the Issue operation. An empty
// MembershipID makes the loan a guest loan.
type IssueRequest struct {
	SerialNo     string
	ItemType     string
	MembershipID string
	IssueDate    time.Time
	ReturnDate   time.Time
	Remarks      string
	IssuedBy     string
}

// ReturnRequest carries the inputs of the Return operation.
type ReturnRequest struct {
	SerialNo         string
	MembershipID     string
	ActualReturnDate time.Time
	Remarks          string
}

// ReturnResult summarizes a completed return. FineAmount is zero when the
// item came back on time; Fine is set only when a fine record was created.
type ReturnResult struct {
	Issue      *Issue
	Fine       *fine.Fine
	FineAmount float64
}

// OverdueIssue is an open issue past its due date with its projected fine.
type OverdueIssue struct {
	Issue
	DaysOverdue int     `json:"daysOverdue"`
	FineAmount  float64 `json:"fineAmount"`
}

// Service defines the interface for the circulation engine.
type Service interface {
	Issue(ctx context.Context, req IssueRequest) (*Issue, error)
	Return(ctx context.Context, req ReturnRequest) (*ReturnResult, error)
	ActiveIssues(ctx context.Context) ([]Issue, error)
	OverdueIssues(ctx context.Context) ([]OverdueIssue, error)
	IssuesByMember(ctx context.Context, membershipID string) ([]Issue, error)
}
