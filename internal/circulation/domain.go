package circulation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Issue status values. StatusOverdue exists in the stored enum for
// reporting tools; the engine itself only writes Issued and Returned.
const (
	StatusIssued   = "Issued"
	StatusReturned = "Returned"
	StatusOverdue  = "Overdue"
)

var (
	ErrInvalidMembership = errors.New("invalid or inactive membership")
	ErrFinesOutstanding  = errors.New("membership has pending fines")
	ErrNoActiveIssue     = errors.New("active issue not found")
)

// Issue is a single lending transaction. Item and member fields are
// denormalized at creation time for reporting.
type Issue struct {
	ID               uuid.UUID  `json:"id"`
	IssueID          string     `json:"issueId"`
	SerialNo         string     `json:"serialNo"`
	ItemName         string     `json:"itemName"`
	ItemType         string     `json:"itemType"`
	AuthorName       string     `json:"authorName"`
	MembershipID     string     `json:"membershipId"`
	MemberName       string     `json:"memberName"`
	IssueDate        time.Time  `json:"issueDate"`
	ReturnDate       time.Time  `json:"returnDate"`
	ActualReturnDate *time.Time `json:"actualReturnDate,omitempty"`
	Status           string     `json:"status"`
	Remarks          string     `json:"remarks"`
	IssuedBy         string     `json:"issuedBy"`
}

// Reserved identifier and display name for walk-in loans.
const (
	GuestMembershipID = "GUEST"
	GuestName         = "Guest"
)

// Borrower is either a registered member or the guest. Modeling this as a
// value type keeps the reserved guest identifier out of caller code, so it
// cannot collide with a real membership ID by accident (minted membership
// IDs are always MEM-prefixed).
type Borrower struct {
	membershipID string
	name         string
	guest        bool
}

// Member identifies a registered borrower.
func Member(membershipID, name string) Borrower {
	return Borrower{membershipID: membershipID, name: name}
}

// Guest identifies a walk-in borrower.
func Guest() Borrower {
	return Borrower{membershipID: GuestMembershipID, name: GuestName, guest: true}
}

func (b Borrower) MembershipID() string { return b.membershipID }
func (b Borrower) Name() string         { return b.name }
func (b Borrower) IsGuest() bool        { return b.guest }
