package fine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libradesk/internal/eventlog"
)

// Store is the persistence interface the fine service depends on. Payment
// mutations run inside a single transaction via WithTx.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	ByID(ctx context.Context, fineID string) (*Fine, error)
	ListPending(ctx context.Context) ([]Fine, error)
	ListByMember(ctx context.Context, membershipID string, unpaidOnly bool) ([]Fine, error)
}

// Tx is the transactional view of the store used by Pay.
type Tx interface {
	FineByID(fineID string) (*Fine, error)
	MarkPaid(fine *Fine) error
	AddPendingAmount(membershipID string, delta float64) error
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

// NewService creates a new fine service instance.
func NewService(store Store, events Recorder, logger *slog.Logger) Service {
	return &service{
		store:  store,
		events: events,
		logger: logger,
		tracer: otel.Tracer("libradesk/fine"),
	}
}

// Pay settles a fine: the paid fields are set and the owning membership's
// pending balance is decremented by the fine amount. The decrement is not
// clamped at zero and paying twice is not idempotent; a double payment
// drives the balance negative, which is left for the operator to reconcile.
func (s *service) Pay(ctx context.Context, fineID string, params PayParams) (*Fine, error) {
	ctx, span := s.tracer.Start(ctx, "fine.pay",
		trace.WithAttributes(attribute.String("fine.id", fineID)),
	)
	defer span.End()

	paidDate := time.Now()
	if params.PaidDate != nil {
		paidDate = *params.PaidDate
	}

	var paid *Fine
	err := s.store.WithTx(ctx, func(tx Tx) error {
		fine, err := tx.FineByID(fineID)
		if err != nil {
			return err
		}

		fine.FinePaid = true
		fine.PaidDate = &paidDate
		if params.Remarks != "" {
			fine.Remarks = params.Remarks
		}
		if err := tx.MarkPaid(fine); err != nil {
			return fmt.Errorf("marking fine paid: %w", err)
		}

		if err := tx.AddPendingAmount(fine.MembershipID, -fine.FineAmount); err != nil {
			return fmt.Errorf("adjusting pending amount: %w", err)
		}

		paid = fine
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Float64("fine.amount", paid.FineAmount))
	s.events.Append(ctx, eventlog.FinePaid, paid.FineID, paid)
	s.logger.Info("fine paid", "fineId", paid.FineID, "amount", paid.FineAmount,
		"membershipId", paid.MembershipID)
	return paid, nil
}

// Get retrieves a fine by its display identifier.
func (s *service) Get(ctx context.Context, fineID string) (*Fine, error) {
	return s.store.ByID(ctx, fineID)
}

// ListPending returns all unpaid fines, most recent due date first.
func (s *service) ListPending(ctx context.Context) ([]Fine, error) {
	return s.store.ListPending(ctx)
}

// ListByMember returns a member's unpaid fines.
func (s *service) ListByMember(ctx context.Context, membershipID string) ([]Fine, error) {
	return s.store.ListByMember(ctx, membershipID, true)
}
