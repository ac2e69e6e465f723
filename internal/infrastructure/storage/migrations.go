package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_overrides_table",
		Up:      migration002AddOverridesTable,
	},
	{
		Version: 3,
		Name:    "add_payments_table",
		Up:      migration003AddPaymentsTable,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ================================================================
// MIGRATION FUNCTIONS
// ================================================================

// migration001InitialSchema creates the orders and receipts tables.
// Members and items live in JSON columns; all amounts are integer cents.
func migration001InitialSchema(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			restaurant TEXT,
			currency TEXT NOT NULL DEFAULT 'EGP',
			status TEXT NOT NULL DEFAULT 'OPEN',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			members_json TEXT NOT NULL DEFAULT '[]',
			items_json TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE INDEX IF NOT EXISTS idx_orders_status
		 ON orders(status)`,

		`CREATE INDEX IF NOT EXISTS idx_orders_created
		 ON orders(created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS receipts (
			order_id TEXT PRIMARY KEY,
			subtotal_cents INTEGER NOT NULL DEFAULT 0,
			tax_cents INTEGER NOT NULL DEFAULT 0,
			service_fee_cents INTEGER NOT NULL DEFAULT 0,
			delivery_fee_cents INTEGER NOT NULL DEFAULT 0,
			total_cents INTEGER NOT NULL DEFAULT 0,
			scanned_items_json TEXT NOT NULL DEFAULT '[]',
			attached_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// migration002AddOverridesTable creates the override_sets table. One row per
// order; saving replaces the whole set, so no history is kept.
func migration002AddOverridesTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS override_sets (
			order_id TEXT PRIMARY KEY,
			prices_json TEXT NOT NULL DEFAULT '[]',
			extras_json TEXT NOT NULL DEFAULT '[]',
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// migration003AddPaymentsTable creates the payments table. Payments are
// events, not balances: a member may appear in several rows and settlement
// sums them.
func migration003AddPaymentsTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			order_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			amount_cents INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_payments_order_id
		 ON payments(order_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
