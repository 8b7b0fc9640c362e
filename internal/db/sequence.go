package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence atomically allocates the next number in a named sequence.
// The upsert serializes concurrent callers on the sequence row, so two
// operations can never be handed the same value.
func NextSequence(ctx context.Context, q Queryer, scope string) (int64, error) {
	var value int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO sequences (scope, value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = sequences.value + 1
		RETURNING value
	`, scope).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("allocating sequence %q: %w", scope, err)
	}
	return value, nil
}
