package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chat-gateway/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS menu (
	item_id INTEGER PRIMARY KEY,
	name    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	order_id              INTEGER PRIMARY KEY AUTOINCREMENT,
	items                 TEXT NOT NULL,
	delivery_address      TEXT NOT NULL,
	customer_phone_number TEXT NOT NULL,
	special_requests      TEXT,
	status                TEXT NOT NULL DEFAULT 'CREATED',
	created_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_customer_phone ON orders (customer_phone_number);
`

const orderColumns = `order_id, items, delivery_address, customer_phone_number, special_requests, status, created_at`

// SQLite stores orders in a local SQLite file, for development and single-node deployments
type SQLite struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLite opens path (":memory:" for an ephemeral store) and applies the schema
func NewSQLite(path string) (*SQLite, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// CreateOrder inserts a new order with status CREATED and returns its id
func (s *SQLite) CreateOrder(ctx context.Context, order models.NewOrder) (string, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (items, delivery_address, customer_phone_number, special_requests, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(items), order.DeliveryAddress, order.CustomerPhoneNumber, order.SpecialRequests,
		string(models.StatusCreated), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read order id: %w", err)
	}

	return strconv.FormatInt(id, 10), nil
}

// GetOrderByID loads a single order. Unknown or non-numeric ids return ErrOrderNotFound.
func (s *SQLite) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	orderID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, models.ErrOrderNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, orderID)
	order, err := scanSQLiteOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("query order %s: %w", id, err)
	}
	return order, nil
}

// GetMenuItemName looks up a menu item name
func (s *SQLite) GetMenuItemName(ctx context.Context, itemID int) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM menu WHERE item_id = ?`, itemID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query menu item %d: %w", itemID, err)
	}
	return name, true, nil
}

// GetOrdersByPhone lists the orders for a phone number, newest first
func (s *SQLite) GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_phone_number = ? ORDER BY order_id DESC`, phone)
	if err != nil {
		return nil, fmt.Errorf("query orders by phone: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanSQLiteOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	return orders, rows.Err()
}

// SeedMenu upserts menu items in one transaction
func (s *SQLite) SeedMenu(ctx context.Context, items []models.MenuItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin menu seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO menu (item_id, name) VALUES (?, ?)
			 ON CONFLICT(item_id) DO UPDATE SET name = excluded.name`, item.ID, item.Name)
		if err != nil {
			return fmt.Errorf("upsert menu item %d: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// Close closes the database
func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteOrder(row rowScanner) (*models.Order, error) {
	var (
		order     models.Order
		id        int64
		items     string
		special   sql.NullString
		status    string
		createdAt string
	)

	if err := row.Scan(&id, &items, &order.DeliveryAddress, &order.CustomerPhoneNumber,
		&special, &status, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %d: %w", id, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("decode created_at of order %d: %w", id, err)
	}

	order.ID = strconv.FormatInt(id, 10)
	order.Status = models.OrderStatus(status)
	order.CreatedAt = ts
	if special.Valid {
		order.SpecialRequests = &special.String
	}
	return &order, nil
}
