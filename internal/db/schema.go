package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    user_id       TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    salt          TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user',
    is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS items (
    id               UUID PRIMARY KEY,
    serial_no        TEXT NOT NULL UNIQUE,
    name             TEXT NOT NULL,
    creator_name     TEXT NOT NULL,
    category         TEXT NOT NULL CHECK (category IN
        ('Science', 'Economics', 'Fiction', 'Children', 'Personal Development')),
    status           TEXT NOT NULL DEFAULT 'Available' CHECK (status IN
        ('Available', 'Issued', 'Damaged', 'Lost')),
    cost             DOUBLE PRECISION NOT NULL,
    procurement_date TIMESTAMPTZ NOT NULL,
    type             TEXT NOT NULL CHECK (type IN ('Book', 'Movie')),
    quantity         INTEGER NOT NULL DEFAULT 1,
    available_copies INTEGER NOT NULL DEFAULT 1,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS memberships (
    id              UUID PRIMARY KEY,
    membership_id   TEXT NOT NULL UNIQUE,
    first_name      TEXT NOT NULL,
    last_name       TEXT NOT NULL,
    contact_number  TEXT NOT NULL,
    contact_address TEXT NOT NULL,
    aadhar_card_no  TEXT NOT NULL UNIQUE,
    start_date      TIMESTAMPTZ NOT NULL,
    end_date        TIMESTAMPTZ NOT NULL,
    membership_type TEXT NOT NULL CHECK (membership_type IN
        ('6 months', '1 year', '2 years')),
    status          TEXT NOT NULL DEFAULT 'Active' CHECK (status IN
        ('Active', 'Inactive', 'Cancelled', 'Expired')),
    amount_pending  DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS issues (
    id                 UUID PRIMARY KEY,
    issue_id           TEXT NOT NULL UNIQUE,
    serial_no          TEXT NOT NULL,
    item_name          TEXT NOT NULL,
    item_type          TEXT NOT NULL CHECK (item_type IN ('Book', 'Movie')),
    author_name        TEXT NOT NULL,
    membership_id      TEXT NOT NULL,
    member_name        TEXT NOT NULL,
    issue_date         TIMESTAMPTZ NOT NULL,
    return_date        TIMESTAMPTZ NOT NULL,
    actual_return_date TIMESTAMPTZ,
    status             TEXT NOT NULL DEFAULT 'Issued' CHECK (status IN
        ('Issued', 'Returned', 'Overdue')),
    remarks            TEXT NOT NULL DEFAULT '',
    issued_by          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issues_open
    ON issues(serial_no, membership_id, issue_date) WHERE status = 'Issued';

CREATE TABLE IF NOT EXISTS fines (
    id                 UUID PRIMARY KEY,
    fine_id            TEXT NOT NULL UNIQUE,
    issue_id           TEXT NOT NULL,
    membership_id      TEXT NOT NULL,
    serial_no          TEXT NOT NULL,
    item_name          TEXT NOT NULL,
    issue_date         TIMESTAMPTZ NOT NULL,
    return_date        TIMESTAMPTZ NOT NULL,
    actual_return_date TIMESTAMPTZ,
    days_overdue       INTEGER NOT NULL DEFAULT 0,
    fine_amount        DOUBLE PRECISION NOT NULL DEFAULT 0,
    fine_paid          BOOLEAN NOT NULL DEFAULT FALSE,
    paid_date          TIMESTAMPTZ,
    remarks            TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sequences (
    scope TEXT PRIMARY KEY,
    value BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id          BIGSERIAL PRIMARY KEY,
    event_type  TEXT NOT NULL,
    entity_id   TEXT NOT NULL,
    payload     JSONB NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(pool *sql.DB) error {
	if _, err := pool.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
