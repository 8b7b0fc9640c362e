package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Item type values.
const (
	TypeBook  = "Book"
	TypeMovie = "Movie"
)

// Item status values.
const (
	StatusAvailable = "Available"
	StatusIssued    = "Issued"
	StatusDamaged   = "Damaged"
	StatusLost      = "Lost"
)

// Categories lists the valid item categories.
var Categories = []string{"Science", "Economics", "Fiction", "Children", "Personal Development"}

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrItemUnavailable = errors.New("item is not available")
	ErrInvalidCategory = errors.New("invalid category")
)

// Item represents a book or a movie. Both share the same lending fields;
// only the creator role differs (author for books, director for movies).
type Item struct {
	ID              uuid.UUID `json:"id"`
	SerialNo        string    `json:"serialNo"`
	Name            string    `json:"name"`
	CreatorName     string    `json:"creatorName"`
	Category        string    `json:"category"`
	Status          string    `json:"status"`
	Cost            float64   `json:"cost"`
	ProcurementDate time.Time `json:"procurementDate"`
	Type            string    `json:"type"`
	Quantity        int       `json:"quantity"`
	AvailableCopies int       `json:"availableCopies"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreatorRole names the creator field exposed by this item type.
func (i *Item) CreatorRole() string {
	if i.Type == TypeMovie {
		return "director"
	}
	return "author"
}

// Lendable reports whether a copy of the item can be issued.
func (i *Item) Lendable() bool {
	return i.Status == StatusAvailable && i.AvailableCopies > 0
}

// Checkout takes one copy out of circulation. The status is derived from the
// copy count, so availability never disagrees with the stored status.
func (i *Item) Checkout() error {
	if !i.Lendable() {
		return ErrItemUnavailable
	}
	i.AvailableCopies--
	if i.AvailableCopies == 0 {
		i.Status = StatusIssued
	}
	return nil
}

// Restore puts one copy back into circulation. The status flip is
// unconditional, and the count is a pass-through: a count already at
// quantity is not clamped here.
func (i *Item) Restore() {
	i.AvailableCopies++
	i.Status = StatusAvailable
}

// ValidCategory reports whether the category is one of the known values.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
