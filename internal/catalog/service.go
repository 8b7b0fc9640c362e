package catalog

import (
	"context"
	"time"
)

// AddItemParams carries the fields needed to add a new catalog item.
type AddItemParams struct {
	Name            string
	CreatorName     string
	Category        string
	Cost            float64
	ProcurementDate time.Time
	Quantity        int
	Type            string
}

// UpdateItemParams carries a partial update for an existing item. Nil fields
// are left unchanged.
type UpdateItemParams struct {
	Name        *string
	CreatorName *string
	Category    *string
	Cost        *float64
	Status      *string
	Quantity    *int
}

// Service defines the interface for the catalog service.
type Service interface {
	AddItem(ctx context.Context, params AddItemParams) (*Item, error)
	GetItem(ctx context.Context, serialNo, itemType string) (*Item, error)
	ListItems(ctx context.Context, itemType string) ([]Item, error)
	AvailableItems(ctx context.Context, itemType string) ([]Item, error)
	SearchItems(ctx context.Context, itemType, query string) ([]Item, error)
	UpdateItem(ctx context.Context, serialNo, itemType string, params UpdateItemParams) (*Item, error)
}
