package membership

import (
	"context"
	"time"
)

// AddParams carries the fields needed to register a new membership.
type AddParams struct {
	FirstName      string
	LastName       string
	ContactNumber  string
	ContactAddress string
	AadharCardNo   string
	StartDate      time.Time
	MembershipType string
}

// Service defines the interface for the membership service.
type Service interface {
	Add(ctx context.Context, params AddParams) (*Membership, error)
	Get(ctx context.Context, membershipID string) (*Membership, error)
	List(ctx context.Context) ([]Membership, error)
	ListActive(ctx context.Context) ([]Membership, error)
	Extend(ctx context.Context, membershipID, extensionTerm string) (*Membership, error)
	Cancel(ctx context.Context, membershipID string) (*Membership, error)
}
