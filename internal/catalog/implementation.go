package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"libradesk/internal/mint"
)

// Store is the persistence interface the catalog service depends on.
type Store interface {
	NextSequence(ctx context.Context, scope string) (int64, error)
	Insert(ctx context.Context, item *Item) error
	BySerial(ctx context.Context, serialNo, itemType string) (*Item, error)
	Update(ctx context.Context, item *Item) error
	List(ctx context.Context, itemType string) ([]Item, error)
	Available(ctx context.Context, itemType string) ([]Item, error)
	Search(ctx context.Context, itemType, query string) ([]Item, error)
}

// service implements the Service interface.
type service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new catalog service instance.
func NewService(store Store, logger *slog.Logger) Service {
	return &service{store: store, logger: logger}
}

// AddItem mints a serial number for the category and creates the item with
// all copies available.
func (s *service) AddItem(ctx context.Context, params AddItemParams) (*Item, error) {
	if !ValidCategory(params.Category) {
		return nil, ErrInvalidCategory
	}
	if params.Type != TypeBook && params.Type != TypeMovie {
		params.Type = TypeBook
	}
	if params.Quantity <= 0 {
		params.Quantity = 1
	}
	if params.ProcurementDate.IsZero() {
		params.ProcurementDate = time.Now()
	}

	seq, err := s.store.NextSequence(ctx, mint.SerialScope(params.Type, params.Category))
	if err != nil {
		return nil, fmt.Errorf("minting serial number: %w", err)
	}

	item := &Item{
		ID:              uuid.New(),
		SerialNo:        mint.SerialNo(params.Type, params.Category, seq),
		Name:            params.Name,
		CreatorName:     params.CreatorName,
		Category:        params.Category,
		Status:          StatusAvailable,
		Cost:            params.Cost,
		ProcurementDate: params.ProcurementDate,
		Type:            params.Type,
		Quantity:        params.Quantity,
		AvailableCopies: params.Quantity,
	}

	if err := s.store.Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("inserting item: %w", err)
	}

	s.logger.Info("item added", "serialNo", item.SerialNo, "type", item.Type, "name", item.Name)
	return item, nil
}

// GetItem retrieves an item by serial number and type.
func (s *service) GetItem(ctx context.Context, serialNo, itemType string) (*Item, error) {
	return s.store.BySerial(ctx, serialNo, itemType)
}

// ListItems returns all items of a type sorted by name.
func (s *service) ListItems(ctx context.Context, itemType string) ([]Item, error) {
	return s.store.List(ctx, itemType)
}

// AvailableItems returns items that can currently be issued.
func (s *service) AvailableItems(ctx context.Context, itemType string) ([]Item, error) {
	return s.store.Available(ctx, itemType)
}

// SearchItems finds items by name or creator, case-insensitively.
func (s *service) SearchItems(ctx context.Context, itemType, query string) ([]Item, error) {
	return s.store.Search(ctx, itemType, query)
}

// UpdateItem applies a partial update to an item found by serial number.
// A quantity change adjusts availableCopies by the same difference, floored
// at zero.
func (s *service) UpdateItem(ctx context.Context, serialNo, itemType string, params UpdateItemParams) (*Item, error) {
	item, err := s.store.BySerial(ctx, serialNo, itemType)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		item.Name = *params.Name
	}
	if params.CreatorName != nil {
		item.CreatorName = *params.CreatorName
	}
	if params.Category != nil {
		if !ValidCategory(*params.Category) {
			return nil, ErrInvalidCategory
		}
		item.Category = *params.Category
	}
	if params.Cost != nil {
		item.Cost = *params.Cost
	}
	if params.Status != nil {
		item.Status = *params.Status
	}
	if params.Quantity != nil {
		diff := *params.Quantity - item.Quantity
		item.Quantity = *params.Quantity
		item.AvailableCopies += diff
		if item.AvailableCopies < 0 {
			item.AvailableCopies = 0
		}
	}

	if err := s.store.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	return item, nil
}
