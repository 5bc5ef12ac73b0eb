package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"chat-gateway/internal/database"
	"chat-gateway/internal/models"
)

// Postgres stores orders and menu items in PostgreSQL
type Postgres struct {
	db *database.DB
}

// NewPostgres creates a store backed by the given pool
func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{db: db}
}

// CreateOrder inserts a new order with status CREATED and returns its id
func (p *Postgres) CreateOrder(ctx context.Context, order models.NewOrder) (string, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}

	var id int64
	err = p.db.QueryRow(ctx, database.InsertOrderSQL,
		items, order.DeliveryAddress, order.CustomerPhoneNumber, order.SpecialRequests, string(models.StatusCreated),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	return strconv.FormatInt(id, 10), nil
}

// GetOrderByID loads a single order. Unknown or non-numeric ids return ErrOrderNotFound.
func (p *Postgres) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	orderID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, models.ErrOrderNotFound
	}

	order, err := scanOrder(p.db.QueryRow(ctx, database.GetOrderByIDSQL, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("query order %s: %w", id, err)
	}
	return order, nil
}

// GetMenuItemName looks up a menu item name
func (p *Postgres) GetMenuItemName(ctx context.Context, itemID int) (string, bool, error) {
	var name string
	err := p.db.QueryRow(ctx, database.GetMenuItemNameSQL, itemID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query menu item %d: %w", itemID, err)
	}
	return name, true, nil
}

// GetOrdersByPhone lists the orders for a phone number, newest first
func (p *Postgres) GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	rows, err := p.db.Query(ctx, database.GetOrdersByPhoneSQL, phone)
	if err != nil {
		return nil, fmt.Errorf("query orders by phone: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	return orders, rows.Err()
}

// SeedMenu upserts menu items in one transaction
func (p *Postgres) SeedMenu(ctx context.Context, items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin menu seed: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, item := range items {
		if _, err := tx.Exec(ctx, database.UpsertMenuItemSQL, item.ID, item.Name); err != nil {
			return fmt.Errorf("upsert menu item %d: %w", item.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the connection pool
func (p *Postgres) Close(context.Context) error {
	p.db.Close()
	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order  models.Order
		id     int64
		items  []byte
		status string
	)

	err := row.Scan(&id, &items, &order.DeliveryAddress, &order.CustomerPhoneNumber,
		&order.SpecialRequests, &status, &order.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %d: %w", id, err)
	}

	order.ID = strconv.FormatInt(id, 10)
	order.Status = models.OrderStatus(status)
	return &order, nil
}
