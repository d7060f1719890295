package repository

import (
	"context"
	"fmt"
)

// schemaStatements are idempotent and applied in order
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id             BIGSERIAL PRIMARY KEY,
		name           VARCHAR(200) NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		category_id    BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		price          NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		sku            VARCHAR(50) NOT NULL UNIQUE,
		brand          VARCHAR(100) NOT NULL,
		rating         NUMERIC(3, 2) NOT NULL DEFAULT 0 CHECK (rating >= 0 AND rating <= 5),
		image_url      TEXT,
		is_active      BOOLEAN NOT NULL DEFAULT TRUE,
		featured       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_active_rating ON products (is_active, rating DESC)`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id         BIGSERIAL PRIMARY KEY,
		session_id VARCHAR(100) NOT NULL UNIQUE,
		user_id    VARCHAR(150) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active  BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_sessions_user ON chat_sessions (user_id, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id           BIGSERIAL PRIMARY KEY,
		session_pk   BIGINT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		message_type VARCHAR(10) NOT NULL CHECK (message_type IN ('user', 'bot', 'system')),
		content      TEXT NOT NULL,
		metadata     JSONB NOT NULL DEFAULT '{}'::jsonb,
		timestamp    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_pk, timestamp)`,
	`CREATE TABLE IF NOT EXISTS user_intents (
		id          BIGSERIAL PRIMARY KEY,
		session_pk  BIGINT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		intent_type VARCHAR(20) NOT NULL,
		confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
		parameters  JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables and indexes if they do not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
