package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// ChangeChannel is the LISTEN/NOTIFY channel the table triggers publish on
const ChangeChannel = "table_changes"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stock (
		sku       TEXT PRIMARY KEY,
		articolo  TEXT NOT NULL,
		categoria TEXT NOT NULL DEFAULT '',
		taglia    TEXT NOT NULL,
		colore    TEXT NOT NULL,
		qty       INTEGER NOT NULL CHECK (qty >= 0),
		prezzo    NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (prezzo >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_articolo_colore ON stock (articolo, colore)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id         TEXT PRIMARY KEY,
		customer   TEXT NOT NULL CHECK (customer <> ''),
		stato      TEXT NOT NULL DEFAULT 'pending'
		           CHECK (stato IN ('pending', 'confirmed', 'partially_fulfilled', 'cancelled')),
		sconto     NUMERIC(5,2) NOT NULL DEFAULT 0 CHECK (sconto >= 0 AND sconto <= 100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_stato ON orders (stato, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id         BIGSERIAL PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		sku        TEXT NOT NULL,
		articolo   TEXT NOT NULL,
		taglia     TEXT NOT NULL,
		colore     TEXT NOT NULL,
		richiesti  INTEGER NOT NULL CHECK (richiesti > 0),
		confermati INTEGER NULL CHECK (confermati IS NULL OR (confermati >= 0 AND confermati <= richiesti)),
		prezzo     NUMERIC(10,2) NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines (order_id)`,

	// Capped test-and-set decrement under a row lock. Returns no row when the sku does not exist.
	`CREATE OR REPLACE FUNCTION decrement_stock(p_sku TEXT, p_qty INTEGER)
	RETURNS TABLE (applied INTEGER, remaining INTEGER)
	LANGUAGE sql AS $$
		UPDATE stock s
		SET qty = s.qty - LEAST(cur.qty, GREATEST(p_qty, 0))
		FROM (SELECT sku, qty FROM stock WHERE sku = p_sku FOR UPDATE) cur
		WHERE s.sku = cur.sku
		RETURNING LEAST(cur.qty, GREATEST(p_qty, 0)), s.qty
	$$`,

	`CREATE OR REPLACE FUNCTION notify_table_change() RETURNS trigger
	LANGUAGE plpgsql AS $$
	DECLARE
		rec RECORD;
	BEGIN
		IF TG_OP = 'DELETE' THEN
			rec := OLD;
		ELSE
			rec := NEW;
		END IF;
		PERFORM pg_notify('` + ChangeChannel + `', json_build_object(
			'table', TG_TABLE_NAME,
			'op', TG_OP,
			'row', row_to_json(rec)
		)::text);
		RETURN NULL;
	END;
	$$`,
}

var notifyTables = []string{"stock", "orders", "order_lines"}

// Migrate creates the tables, the decrement procedure and the change triggers if missing
func Migrate(ctx context.Context, conn *sql.DB) error {
	log.Printf("📦 Migrate: applying schema")

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			log.Printf("❌ Migrate: statement %d failed: %v", i, err)
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}

	for _, table := range notifyTables {
		trigger := table + "_notify_change"
		stmts := []string{
			fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, table),
			fmt.Sprintf(`CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s
				FOR EACH ROW EXECUTE FUNCTION notify_table_change()`, trigger, table),
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				log.Printf("❌ Migrate: trigger on %s failed: %v", table, err)
				return fmt.Errorf("failed to install change trigger on %s: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	log.Printf("✅ Migrate: schema ready (%d statements, %d triggers)", len(schema), len(notifyTables))
	return nil
}
