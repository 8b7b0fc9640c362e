package catalog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	items     map[string]*Item
	sequences map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]*Item{}, sequences: map[string]int64{}}
}

func (s *fakeStore) key(serialNo, itemType string) string {
	return serialNo + "/" + itemType
}

func (s *fakeStore) NextSequence(ctx context.Context, scope string) (int64, error) {
	s.sequences[scope]++
	return s.sequences[scope], nil
}

func (s *fakeStore) Insert(ctx context.Context, item *Item) error {
	copied := *item
	s.items[s.key(item.SerialNo, item.Type)] = &copied
	return nil
}

func (s *fakeStore) BySerial(ctx context.Context, serialNo, itemType string) (*Item, error) {
	item, ok := s.items[s.key(serialNo, itemType)]
	if !ok {
		return nil, ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *fakeStore) Update(ctx context.Context, item *Item) error {
	copied := *item
	s.items[s.key(item.SerialNo, item.Type)] = &copied
	return nil
}

func (s *fakeStore) List(ctx context.Context, itemType string) ([]Item, error) {
	var out []Item
	for _, item := range s.items {
		if item.Type == itemType {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *fakeStore) Available(ctx context.Context, itemType string) ([]Item, error) {
	var out []Item
	for _, item := range s.items {
		if item.Type == itemType && item.Lendable() {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *fakeStore) Search(ctx context.Context, itemType, query string) ([]Item, error) {
	var out []Item
	query = strings.ToLower(query)
	for _, item := range s.items {
		if item.Type != itemType {
			continue
		}
		if strings.Contains(strings.ToLower(item.Name), query) ||
			strings.Contains(strings.ToLower(item.CreatorName), query) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func testService(store Store) Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a serial per category", func(t *testing.T) {
		svc := testService(newFakeStore())

		book, err := svc.AddItem(ctx, AddItemParams{
			Name: "A Brief History of Time", CreatorName: "Stephen Hawking",
			Category: "Science", Type: TypeBook, Quantity: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, "SC(B/M)000001", book.SerialNo)
		assert.Equal(t, 2, book.Quantity)
		assert.Equal(t, 2, book.AvailableCopies)
		assert.Equal(t, StatusAvailable, book.Status)

		movie, err := svc.AddItem(ctx, AddItemParams{
			Name: "Interstellar", CreatorName: "Christopher Nolan",
			Category: "Science", Type: TypeMovie, Quantity: 1,
		})
		require.NoError(t, err)
		// Books and movies of one category share a serial counter.
		assert.Equal(t, "SC(B/M)000002", movie.SerialNo)

		second, err := svc.AddItem(ctx, AddItemParams{
			Name: "Cosmos", CreatorName: "Carl Sagan",
			Category: "Science", Type: TypeBook, Quantity: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, "SC(B/M)000003", second.SerialNo)
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		svc := testService(newFakeStore())

		_, err := svc.AddItem(ctx, AddItemParams{
			Name: "Some Book", Category: "History", Type: TypeBook,
		})
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("quantity defaults to one", func(t *testing.T) {
		svc := testService(newFakeStore())

		item, err := svc.AddItem(ctx, AddItemParams{
			Name: "Some Book", Category: "Fiction", Type: TypeBook,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, 1, item.AvailableCopies)
	})
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity change shifts available copies by the difference", func(t *testing.T) {
		store := newFakeStore()
		svc := testService(store)

		item, err := svc.AddItem(ctx, AddItemParams{
			Name: "Cosmos", Category: "Science", Type: TypeBook, Quantity: 3,
		})
		require.NoError(t, err)

		// One copy is out on loan.
		stored := store.items[store.key(item.SerialNo, TypeBook)]
		stored.AvailableCopies = 2

		qty := 5
		updated, err := svc.UpdateItem(ctx, item.SerialNo, TypeBook, UpdateItemParams{Quantity: &qty})
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Quantity)
		assert.Equal(t, 4, updated.AvailableCopies)
	})

	t.Run("shrinking quantity floors available copies at zero", func(t *testing.T) {
		store := newFakeStore()
		svc := testService(store)

		item, err := svc.AddItem(ctx, AddItemParams{
			Name: "Cosmos", Category: "Science", Type: TypeBook, Quantity: 3,
		})
		require.NoError(t, err)
		store.items[store.key(item.SerialNo, TypeBook)].AvailableCopies = 1

		qty := 1
		updated, err := svc.UpdateItem(ctx, item.SerialNo, TypeBook, UpdateItemParams{Quantity: &qty})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Quantity)
		assert.Equal(t, 0, updated.AvailableCopies)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc := testService(newFakeStore())

		name := "New Name"
		_, err := svc.UpdateItem(ctx, "SC(B/M)999999", TypeBook, UpdateItemParams{Name: &name})
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}
