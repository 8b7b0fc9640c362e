package circulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libradesk/internal/catalog"
	"libradesk/internal/eventlog"
	"libradesk/internal/fine"
	"libradesk/internal/membership"
	"libradesk/internal/mint"
)

// Store is the persistence interface the circulation engine depends on.
// All effects of one Issue or Return run inside a single WithTx call, and
// the item row is locked for the duration of the transaction, so two
// concurrent operations cannot interleave their read-check-then-write
// sequences on the same item.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	ListActive(ctx context.Context) ([]Issue, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]Issue, error)
	ListByMember(ctx context.Context, membershipID string) ([]Issue, error)
}

// Tx is the transactional view of the ledgers used by Issue and Return.
type Tx interface {
	ItemForUpdate(serialNo, itemType string) (*catalog.Item, error)
	SaveItemAvailability(item *catalog.Item) error
	MembershipByID(membershipID string) (*membership.Membership, error)
	AddPendingAmount(membershipID string, delta float64) error
	NextSequence(scope string) (int64, error)
	InsertIssue(issue *Issue) error
	MostRecentOpenIssue(serialNo, membershipID string) (*Issue, error)
	UpdateIssue(issue *Issue) error
	InsertFine(f *fine.Fine) error
}

// Recorder records audit events; satisfied by *eventlog.Log.
type Recorder interface {
	Append(ctx context.Context, eventType, entityID string, payload any)
}

// service implements the Service interface.
type service struct {
	store  Store
	events Recorder
	logger *slog.Logger
	tracer trace.Tracer
}

// NewService creates a new circulation engine instance.
func NewService(store Store, events Recorder, logger *slog.Logger) Service {
	return &service{
		store:  store,
		events: events,
		logger: logger,
		tracer: otel.Tracer("libradesk/circulation"),
	}
}

// Issue lends one copy of an item. Preconditions run in order, first
// failure wins: the item must exist, be available with copies left, and a
// supplied membership must be active with a clean fine balance. All
// mutations commit together.
func (s *service) Issue(ctx context.Context, req IssueRequest) (*Issue, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.issue",
		trace.WithAttributes(
			attribute.String("item.serial", req.SerialNo),
			attribute.String("item.type", req.ItemType),
			attribute.String("membership.id", req.MembershipID),
		),
	)
	defer span.End()

	if req.IssueDate.IsZero() {
		req.IssueDate = time.Now()
	}
	if req.IssuedBy == "" {
		req.IssuedBy = "system"
	}

	var created *Issue
	err := s.store.WithTx(ctx, func(tx Tx) error {
		item, err := tx.ItemForUpdate(req.SerialNo, req.ItemType)
		if err != nil {
			return err
		}
		if !item.Lendable() {
			return catalog.ErrItemUnavailable
		}

		borrower := Guest()
		if req.MembershipID != "" {
			m, err := tx.MembershipByID(req.MembershipID)
			if err != nil {
				if errors.Is(err, membership.ErrMembershipNotFound) {
					return ErrInvalidMembership
				}
				return fmt.Errorf("looking up membership: %w", err)
			}
			if m.Status != membership.StatusActive {
				return ErrInvalidMembership
			}
			if m.AmountPending > 0 {
				return ErrFinesOutstanding
			}
			borrower = Member(m.MembershipID, m.FullName())
		}

		if err := item.Checkout(); err != nil {
			return err
		}
		if err := tx.SaveItemAvailability(item); err != nil {
			return fmt.Errorf("saving item availability: %w", err)
		}

		seq, err := tx.NextSequence(mint.IssueScope)
		if err != nil {
			return fmt.Errorf("minting issue id: %w", err)
		}

		created = &Issue{
			ID:           uuid.New(),
			IssueID:      mint.IssueID(time.Now(), seq),
			SerialNo:     item.SerialNo,
			ItemName:     item.Name,
			ItemType:     item.Type,
			AuthorName:   item.CreatorName,
			MembershipID: borrower.MembershipID(),
			MemberName:   borrower.Name(),
			IssueDate:    req.IssueDate,
			ReturnDate:   req.ReturnDate,
			Status:       StatusIssued,
			Remarks:      req.Remarks,
			IssuedBy:     req.IssuedBy,
		}
		if err := tx.InsertIssue(created); err != nil {
			return fmt.Errorf("inserting issue: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("issue.id", created.IssueID))
	s.events.Append(ctx, eventlog.ItemIssued, created.IssueID, created)
	s.logger.Info("item issued", "issueId", created.IssueID, "serialNo", created.SerialNo,
		"membershipId", created.MembershipID, "issuedBy", created.IssuedBy)
	return created, nil
}

// Return closes the most recent open issue for the item/member pair,
// restores the item and accrues an overdue fine when the return is late.
// All mutations commit together.
func (s *service) Return(ctx context.Context, req ReturnRequest) (*ReturnResult, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(
			attribute.String("item.serial", req.SerialNo),
			attribute.String("membership.id", req.MembershipID),
		),
	)
	defer span.End()

	if req.ActualReturnDate.IsZero() {
		req.ActualReturnDate = time.Now()
	}

	result := &ReturnResult{}
	err := s.store.WithTx(ctx, func(tx Tx) error {
		issue, err := tx.MostRecentOpenIssue(req.SerialNo, req.MembershipID)
		if err != nil {
			return err
		}

		issue.ActualReturnDate = &req.ActualReturnDate
		issue.Status = StatusReturned
		if req.Remarks != "" {
			issue.Remarks = req.Remarks
		}
		if err := tx.UpdateIssue(issue); err != nil {
			return fmt.Errorf("closing issue: %w", err)
		}

		// The item row may have been removed from the catalog while the
		// copy was out; the return still closes the issue.
		item, err := tx.ItemForUpdate(issue.SerialNo, issue.ItemType)
		if err != nil && !errors.Is(err, catalog.ErrItemNotFound) {
			return err
		}
		if item != nil {
			item.Restore()
			if err := tx.SaveItemAvailability(item); err != nil {
				return fmt.Errorf("restoring item: %w", err)
			}
		}

		days, amount := fine.Compute(issue.ReturnDate, req.ActualReturnDate)
		result.Issue = issue
		result.FineAmount = amount
		if amount == 0 {
			return nil
		}

		seq, err := tx.NextSequence(mint.FineScope)
		if err != nil {
			return fmt.Errorf("minting fine id: %w", err)
		}

		created := &fine.Fine{
			ID:               uuid.New(),
			FineID:           mint.FineID(seq),
			IssueID:          issue.IssueID,
			MembershipID:     issue.MembershipID,
			SerialNo:         issue.SerialNo,
			ItemName:         issue.ItemName,
			IssueDate:        issue.IssueDate,
			ReturnDate:       issue.ReturnDate,
			ActualReturnDate: &req.ActualReturnDate,
			DaysOverdue:      days,
			FineAmount:       amount,
			Remarks:          req.Remarks,
		}
		if err := tx.InsertFine(created); err != nil {
			return fmt.Errorf("inserting fine: %w", err)
		}
		if err := tx.AddPendingAmount(issue.MembershipID, amount); err != nil {
			return fmt.Errorf("adjusting pending amount: %w", err)
		}

		result.Fine = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Float64("fine.amount", result.FineAmount))
	s.events.Append(ctx, eventlog.ItemReturned, result.Issue.IssueID, result.Issue)
	if result.Fine != nil {
		s.events.Append(ctx, eventlog.FineCreated, result.Fine.FineID, result.Fine)
	}
	s.logger.Info("item returned", "issueId", result.Issue.IssueID,
		"serialNo", result.Issue.SerialNo, "fineAmount", result.FineAmount)
	return result, nil
}

// ActiveIssues returns all open issues, newest first.
func (s *service) ActiveIssues(ctx context.Context) ([]Issue, error) {
	return s.store.ListActive(ctx)
}

// OverdueIssues returns open issues past their due date with the fine each
// would accrue if returned now. Nothing is persisted.
func (s *service) OverdueIssues(ctx context.Context) ([]OverdueIssue, error) {
	now := time.Now()
	issues, err := s.store.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	overdue := make([]OverdueIssue, 0, len(issues))
	for _, issue := range issues {
		projection := fine.Project(issue.ReturnDate, now)
		overdue = append(overdue, OverdueIssue{
			Issue:       issue,
			DaysOverdue: projection.DaysOverdue,
			FineAmount:  projection.FineAmount,
		})
	}
	return overdue, nil
}

// IssuesByMember returns a member's issues, newest first.
func (s *service) IssuesByMember(ctx context.Context, membershipID string) ([]Issue, error) {
	return s.store.ListByMember(ctx, membershipID)
}
