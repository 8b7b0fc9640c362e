package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"libradesk/internal/db"
)

const itemColumns = `id, serial_no, name, creator_name, category, status, cost,
	procurement_date, type, quantity, available_copies, created_at, updated_at`

// PostgresStore implements Store on top of a PostgreSQL pool.
type PostgresStore struct {
	pool *sql.DB
}

// NewPostgresStore creates a catalog store backed by the given pool.
func NewPostgresStore(pool *sql.DB) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) NextSequence(ctx context.Context, scope string) (int64, error) {
	return db.NextSequence(ctx, s.pool, scope)
}

func (s *PostgresStore) Insert(ctx context.Context, item *Item) error {
	_, err := s.pool.ExecContext(ctx, `
		INSERT INTO items (id, serial_no, name, creator_name, category, status, cost,
			procurement_date, type, quantity, available_copies)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, item.ID, item.SerialNo, item.Name, item.CreatorName, item.Category, item.Status,
		item.Cost, item.ProcurementDate, item.Type, item.Quantity, item.AvailableCopies)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("serial number %s already exists: %w", item.SerialNo, err)
		}
		return err
	}
	return nil
}

func (s *PostgresStore) BySerial(ctx context.Context, serialNo, itemType string) (*Item, error) {
	row := s.pool.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE serial_no = $1 AND type = $2
	`, serialNo, itemType)
	return scanItem(row)
}

func (s *PostgresStore) Update(ctx context.Context, item *Item) error {
	_, err := s.pool.ExecContext(ctx, `
		UPDATE items
		SET name = $1, creator_name = $2, category = $3, status = $4, cost = $5,
			procurement_date = $6, quantity = $7, available_copies = $8, updated_at = NOW()
		WHERE serial_no = $9 AND type = $10
	`, item.Name, item.CreatorName, item.Category, item.Status, item.Cost,
		item.ProcurementDate, item.Quantity, item.AvailableCopies, item.SerialNo, item.Type)
	return err
}

func (s *PostgresStore) List(ctx context.Context, itemType string) ([]Item, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE type = $1
		ORDER BY name
	`, itemType)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *PostgresStore) Available(ctx context.Context, itemType string) ([]Item, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE type = $1 AND status = 'Available' AND available_copies > 0
		ORDER BY name
	`, itemType)
	if err != nil {
		return nil, fmt.Errorf("listing available items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *PostgresStore) Search(ctx context.Context, itemType, query string) ([]Item, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE type = $1 AND (name ILIKE $2 OR creator_name ILIKE $2)
		ORDER BY name
	`, itemType, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	item := &Item{}
	err := row.Scan(&item.ID, &item.SerialNo, &item.Name, &item.CreatorName, &item.Category,
		&item.Status, &item.Cost, &item.ProcurementDate, &item.Type, &item.Quantity,
		&item.AvailableCopies, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}
	return item, nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
