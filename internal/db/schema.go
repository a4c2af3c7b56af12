package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Currency columns are TEXT holding
// decimal strings so that no value ever passes through a float.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username
    ON users(username);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS asset_types (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    prefix     TEXT UNIQUE,
    image      BLOB,
    image_mime TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sale_records (
    id                  INTEGER PRIMARY KEY,
    sale_type           TEXT NOT NULL CHECK (sale_type IN ('BULK', 'MIXED', 'SINGLE')),
    scrapped            INTEGER NOT NULL DEFAULT 0,
    total_sale_price    TEXT NOT NULL,
    total_purchase_cost TEXT NOT NULL,
    total_discount      TEXT NOT NULL DEFAULT '0',
    notes               TEXT,
    created_by          INTEGER REFERENCES users(id),
    created_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
    id                    INTEGER PRIMARY KEY,
    asset_type_id         INTEGER NOT NULL REFERENCES asset_types(id) ON DELETE RESTRICT,
    model_number          TEXT NOT NULL,
    serial_number         TEXT UNIQUE,
    purchase_price        TEXT NOT NULL,
    purchase_date         DATETIME NOT NULL,
    location              TEXT NOT NULL DEFAULT 'KIRIGITI' CHECK (location IN ('GITHURAI_45', 'KIRIGITI', 'KIAMBU')),
    status                TEXT NOT NULL DEFAULT 'IN_STOCK' CHECK (status IN ('IN_STOCK', 'PENDING_SALE', 'SOLD', 'SCRAPPED')),
    warranty_end_date     DATETIME,
    pending_sale_price    TEXT,
    sale_record_id        INTEGER REFERENCES sale_records(id),
    individual_sale_price TEXT,
    created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((status = 'SOLD') = (individual_sale_price IS NOT NULL)),
    CHECK ((status IN ('SOLD', 'SCRAPPED')) = (sale_record_id IS NOT NULL)),
    CHECK (pending_sale_price IS NULL OR status = 'PENDING_SALE')
);

CREATE INDEX IF NOT EXISTS idx_assets_stock
    ON assets(asset_type_id, location, status, purchase_date);

CREATE INDEX IF NOT EXISTS idx_assets_sale_record
    ON assets(sale_record_id);

CREATE TABLE IF NOT EXISTS maintenance_logs (
    id          INTEGER PRIMARY KEY,
    asset_id    INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
    log_date    DATETIME NOT NULL,
    log_type    TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    cost        TEXT NOT NULL DEFAULT '0',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cart_items (
    session_id TEXT NOT NULL,
    asset_id   INTEGER NOT NULL REFERENCES assets(id),
    added_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, asset_id)
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: maintenance logs are listed per asset, newest first.
	`CREATE INDEX IF NOT EXISTS idx_maintenance_logs_asset
	     ON maintenance_logs(asset_id, log_date DESC)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist and
// applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
