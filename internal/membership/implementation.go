package membership

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"libradesk/internal/mint"
)

// Store is the persistence interface the membership service depends on.
type Store interface {
	NextSequence(ctx context.Context, scope string) (int64, error)
	Insert(ctx context.Context, m *Membership) error
	ByID(ctx context.Context, membershipID string) (*Membership, error)
	Update(ctx context.Context, m *Membership) error
	List(ctx context.Context) ([]Membership, error)
	ListByStatus(ctx context.Context, status string) ([]Membership, error)
}

// service implements the Service interface.
type service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new membership service instance.
func NewService(store Store, logger *slog.Logger) Service {
	return &service{store: store, logger: logger}
}

// Add registers a new membership. The validity window runs from the start
// date for the length of the membership type.
func (s *service) Add(ctx context.Context, params AddParams) (*Membership, error) {
	if params.StartDate.IsZero() {
		params.StartDate = time.Now()
	}

	endDate, err := CalculateEndDate(params.StartDate, params.MembershipType)
	if err != nil {
		return nil, err
	}

	seq, err := s.store.NextSequence(ctx, mint.MembershipScope)
	if err != nil {
		return nil, fmt.Errorf("minting membership id: %w", err)
	}

	m := &Membership{
		ID:             uuid.New(),
		MembershipID:   mint.MembershipID(seq),
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		ContactNumber:  params.ContactNumber,
		ContactAddress: params.ContactAddress,
		AadharCardNo:   params.AadharCardNo,
		StartDate:      params.StartDate,
		EndDate:        endDate,
		MembershipType: params.MembershipType,
		Status:         StatusActive,
	}

	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("membership added", "membershipId", m.MembershipID, "type", m.MembershipType)
	return m, nil
}

// Get retrieves a membership by its display identifier.
func (s *service) Get(ctx context.Context, membershipID string) (*Membership, error) {
	return s.store.ByID(ctx, membershipID)
}

// List returns all memberships, newest first.
func (s *service) List(ctx context.Context) ([]Membership, error) {
	return s.store.List(ctx)
}

// ListActive returns memberships with Active status.
func (s *service) ListActive(ctx context.Context) ([]Membership, error) {
	return s.store.ListByStatus(ctx, StatusActive)
}

// Extend pushes the validity window out from the current end date by the
// extension term and reactivates the membership.
func (s *service) Extend(ctx context.Context, membershipID, extensionTerm string) (*Membership, error) {
	m, err := s.store.ByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	if extensionTerm == "" {
		extensionTerm = TermSixMonths
	}
	endDate, err := CalculateEndDate(m.EndDate, extensionTerm)
	if err != nil {
		return nil, err
	}

	m.EndDate = endDate
	m.MembershipType = extensionTerm
	m.Status = StatusActive

	if err := s.store.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("extending membership: %w", err)
	}

	s.logger.Info("membership extended", "membershipId", m.MembershipID, "endDate", m.EndDate)
	return m, nil
}

// Cancel closes the membership immediately.
func (s *service) Cancel(ctx context.Context, membershipID string) (*Membership, error) {
	m, err := s.store.ByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	m.Status = StatusCancelled
	m.EndDate = time.Now()

	if err := s.store.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("cancelling membership: %w", err)
	}

	s.logger.Info("membership cancelled", "membershipId", m.MembershipID)
	return m, nil
}
