package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for orders, receipts, overrides
// and payments. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveOrder inserts or updates an order with its members and items
func (s *Storage) SaveOrder(order *OrderRecord) error {
	membersJSON, err := json.Marshal(order.Members)
	if err != nil {
		return fmt.Errorf("failed to marshal members: %w", err)
	}
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO orders
	(id, name, restaurant, currency, status, created_at, updated_at,
	 members_json, items_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		order.ID,
		order.Name,
		order.Restaurant,
		order.Currency,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
		string(membersJSON),
		string(itemsJSON),
	)

	return err
}

// GetOrder retrieves an order by id
func (s *Storage) GetOrder(orderID string) (*OrderRecord, error) {
	query := `
	SELECT id, name, restaurant, currency, status, created_at, updated_at,
	       members_json, items_json
	FROM orders WHERE id = ?
	`

	order := &OrderRecord{}
	var restaurant sql.NullString
	var membersJSON, itemsJSON string
	err := s.db.QueryRow(query, orderID).Scan(
		&order.ID,
		&order.Name,
		&restaurant,
		&order.Currency,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&membersJSON,
		&itemsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if restaurant.Valid {
		order.Restaurant = restaurant.String
	}
	if err := json.Unmarshal([]byte(membersJSON), &order.Members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal members: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	return order, nil
}

// ListOrders returns orders matching the given filters with pagination
func (s *Storage) ListOrders(filters OrderFilters) (*OrderListResult, error) {
	limit := filters.Limit
	if limit == 0 {
		limit = 50
	}

	where := ""
	args := []interface{}{}
	if filters.Status != "" {
		where = " WHERE status = ?"
		args = append(args, filters.Status)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := `
	SELECT id, name, restaurant, currency, status, created_at, updated_at,
	       members_json, items_json
	FROM orders` + where + `
	ORDER BY created_at DESC
	LIMIT ? OFFSET ?
	`
	args = append(args, limit, filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var orders []*OrderRecord
	for rows.Next() {
		order := &OrderRecord{}
		var restaurant sql.NullString
		var membersJSON, itemsJSON string
		err := rows.Scan(
			&order.ID,
			&order.Name,
			&restaurant,
			&order.Currency,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
			&membersJSON,
			&itemsJSON,
		)
		if err != nil {
			return nil, err
		}
		if restaurant.Valid {
			order.Restaurant = restaurant.String
		}
		if err := json.Unmarshal([]byte(membersJSON), &order.Members); err != nil {
			return nil, fmt.Errorf("failed to unmarshal members: %w", err)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &OrderListResult{
		Orders:     orders,
		TotalCount: total,
		Limit:      limit,
		Offset:     filters.Offset,
	}, nil
}

// DeleteOrder removes an order; dependent rows cascade
func (s *Storage) DeleteOrder(orderID string) error {
	result, err := s.db.Exec(`DELETE FROM orders WHERE id = ?`, orderID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveReceipt inserts or updates the receipt for an order
func (s *Storage) SaveReceipt(receipt *ReceiptRecord) error {
	scannedJSON, err := json.Marshal(receipt.ScannedItems)
	if err != nil {
		return fmt.Errorf("failed to marshal scanned items: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO receipts
	(order_id, subtotal_cents, tax_cents, service_fee_cents, delivery_fee_cents,
	 total_cents, scanned_items_json, attached_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		receipt.OrderID,
		receipt.SubtotalCents,
		receipt.TaxCents,
		receipt.ServiceFeeCents,
		receipt.DeliveryFeeCents,
		receipt.TotalCents,
		string(scannedJSON),
		receipt.AttachedAt,
		receipt.UpdatedAt,
	)

	return err
}

// GetReceipt retrieves the receipt for an order
func (s *Storage) GetReceipt(orderID string) (*ReceiptRecord, error) {
	query := `
	SELECT order_id, subtotal_cents, tax_cents, service_fee_cents,
	       delivery_fee_cents, total_cents, scanned_items_json,
	       attached_at, updated_at
	FROM receipts WHERE order_id = ?
	`

	receipt := &ReceiptRecord{}
	var scannedJSON string
	err := s.db.QueryRow(query, orderID).Scan(
		&receipt.OrderID,
		&receipt.SubtotalCents,
		&receipt.TaxCents,
		&receipt.ServiceFeeCents,
		&receipt.DeliveryFeeCents,
		&receipt.TotalCents,
		&scannedJSON,
		&receipt.AttachedAt,
		&receipt.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(scannedJSON), &receipt.ScannedItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scanned items: %w", err)
	}

	return receipt, nil
}

// SaveOverrides replaces the full override set for an order
func (s *Storage) SaveOverrides(rec *OverrideRecord) error {
	pricesJSON, err := json.Marshal(rec.Prices)
	if err != nil {
		return fmt.Errorf("failed to marshal price overrides: %w", err)
	}
	extrasJSON, err := json.Marshal(rec.Extras)
	if err != nil {
		return fmt.Errorf("failed to marshal extra items: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO override_sets
	(order_id, prices_json, extras_json, updated_at)
	VALUES (?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		rec.OrderID,
		string(pricesJSON),
		string(extrasJSON),
		rec.UpdatedAt,
	)

	return err
}

// GetOverrides retrieves the override set for an order. An order with no
// saved overrides gets an empty set back.
func (s *Storage) GetOverrides(orderID string) (*OverrideRecord, error) {
	query := `
	SELECT order_id, prices_json, extras_json, updated_at
	FROM override_sets WHERE order_id = ?
	`

	rec := &OverrideRecord{}
	var pricesJSON, extrasJSON string
	err := s.db.QueryRow(query, orderID).Scan(
		&rec.OrderID,
		&pricesJSON,
		&extrasJSON,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return &OverrideRecord{OrderID: orderID}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(pricesJSON), &rec.Prices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal price overrides: %w", err)
	}
	if err := json.Unmarshal([]byte(extrasJSON), &rec.Extras); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extra items: %w", err)
	}

	return rec, nil
}

// SavePayments replaces the full payment list for an order
func (s *Storage) SavePayments(orderID string, payments []PaymentRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM payments WHERE order_id = ?`, orderID); err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, p := range payments {
		_, err := tx.Exec(`
			INSERT INTO payments (order_id, member_id, amount_cents)
			VALUES (?, ?, ?)
		`, orderID, p.MemberID, p.AmountCents)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetPayments retrieves all payments for an order
func (s *Storage) GetPayments(orderID string) ([]PaymentRecord, error) {
	query := `
	SELECT order_id, member_id, amount_cents
	FROM payments WHERE order_id = ?
	ORDER BY member_id ASC, rowid ASC
	`

	rows, err := s.db.Query(query, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var payments []PaymentRecord
	for rows.Next() {
		var p PaymentRecord
		if err := rows.Scan(&p.OrderID, &p.MemberID, &p.AmountCents); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}
