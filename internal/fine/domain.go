package fine

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrFineNotFound = errors.New("fine not found")

// Fine is a monetary penalty record for a late return, tied to exactly one
// issue. It is append-mostly: only the payment fields change after creation,
// and fines are never deleted.
type Fine struct {
	ID               uuid.UUID  `json:"id"`
	FineID           string     `json:"fineId"`
	IssueID          string     `json:"issueId"`
	MembershipID     string     `json:"membershipId"`
	SerialNo         string     `json:"serialNo"`
	ItemName         string     `json:"itemName"`
	IssueDate        time.Time  `json:"issueDate"`
	ReturnDate       time.Time  `json:"returnDate"`
	ActualReturnDate *time.Time `json:"actualReturnDate,omitempty"`
	DaysOverdue      int        `json:"daysOverdue"`
	FineAmount       float64    `json:"fineAmount"`
	FinePaid         bool       `json:"finePaid"`
	PaidDate         *time.Time `json:"paidDate,omitempty"`
	Remarks          string     `json:"remarks"`
}
