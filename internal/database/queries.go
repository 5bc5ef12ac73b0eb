package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (items, delivery_address, customer_phone_number, special_requests, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING order_id`

	GetOrderByIDSQL = `
		SELECT order_id, items, delivery_address, customer_phone_number, special_requests, status, created_at
		FROM orders WHERE order_id = $1`

	GetOrdersByPhoneSQL = `
		SELECT order_id, items, delivery_address, customer_phone_number, special_requests, status, created_at
		FROM orders WHERE customer_phone_number = $1
		ORDER BY created_at DESC`
)

// Menu queries
const (
	GetMenuItemNameSQL = `SELECT name FROM menu WHERE item_id = $1`

	UpsertMenuItemSQL = `
		INSERT INTO menu (item_id, name) VALUES ($1, $2)
		ON CONFLICT (item_id) DO UPDATE SET name = EXCLUDED.name`
)
