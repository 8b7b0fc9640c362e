package membership

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Membership term values. The term determines the validity window length.
const (
	TermSixMonths = "6 months"
	TermOneYear   = "1 year"
	TermTwoYears  = "2 years"
)

// Membership status values.
const (
	StatusActive    = "Active"
	StatusInactive  = "Inactive"
	StatusCancelled = "Cancelled"
	StatusExpired   = "Expired"
)

var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrDuplicateAadhar    = errors.New("aadhar card number already registered")
	ErrInvalidTerm        = errors.New("invalid membership type")
)

// Membership is a person's borrowing eligibility record. AmountPending is
// the running sum of unpaid fines and is mutated only by the fine engine.
type Membership struct {
	ID             uuid.UUID `json:"id"`
	MembershipID   string    `json:"membershipId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	ContactNumber  string    `json:"contactNumber"`
	ContactAddress string    `json:"contactAddress"`
	AadharCardNo   string    `json:"aadharCardNo"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	MembershipType string    `json:"membershipType"`
	Status         string    `json:"status"`
	AmountPending  float64   `json:"amountPending"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FullName returns the member's display name as recorded on issues.
func (m *Membership) FullName() string {
	return m.FirstName + " " + m.LastName
}

// CalculateEndDate returns the validity window end for a term starting at
// the given date.
func CalculateEndDate(start time.Time, term string) (time.Time, error) {
	switch term {
	case TermSixMonths:
		return start.AddDate(0, 6, 0), nil
	case TermOneYear:
		return start.AddDate(1, 0, 0), nil
	case TermTwoYears:
		return start.AddDate(2, 0, 0), nil
	default:
		return time.Time{}, ErrInvalidTerm
	}
}
