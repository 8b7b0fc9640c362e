package fine

import (
	"context"
	"time"
)

// PayParams carries the optional payment fields. A nil PaidDate defaults to
// the current time; empty remarks keep the fine's existing remarks.
type PayParams struct {
	PaidDate *time.Time
	Remarks  string
}

// Service defines the interface for the fine service.
type Service interface {
	Pay(ctx context.Context, fineID string, params PayParams) (*Fine, error)
	Get(ctx context.Context, fineID string) (*Fine, error)
	ListPending(ctx context.Context) ([]Fine, error)
	ListByMember(ctx context.Context, membershipID string) ([]Fine, error)
}
