// Package store holds the order and menu record stores. Every backend satisfies Backend, which
// is a superset of the contracts the order and notification services consume.
package store

import (
	"context"
	"fmt"

	"chat-gateway/internal/config"
	"chat-gateway/internal/database"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

// Backend is an order/menu record store
type Backend interface {
	CreateOrder(ctx context.Context, order models.NewOrder) (string, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetMenuItemName(ctx context.Context, itemID int) (string, bool, error)
	GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error)
	SeedMenu(ctx context.Context, items []models.MenuItem) error
	Close(ctx context.Context) error
}

// Open connects the backend selected by cfg.Store.Driver and prepares its schema
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Backend, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.New(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewPostgres(db), nil
	case "sqlite":
		return NewSQLite(cfg.SQLite.Path)
	case "mongo":
		return NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}

// MenuFromConfig converts configured menu entries into menu items
func MenuFromConfig(entries []config.MenuEntry) []models.MenuItem {
	items := make([]models.MenuItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.MenuItem{ID: e.ID, Name: e.Name})
	}
	return items
}
