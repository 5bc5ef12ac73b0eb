package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chat-gateway/internal/models"
)

const (
	ordersCollection = "orders"
	menuCollection   = "menu"
)

// Mongo stores orders and menu items in MongoDB. Order ids are UUID strings.
type Mongo struct {
	client *mongo.Client
	orders *mongo.Collection
	menu   *mongo.Collection
}

// NewMongo connects to uri and prepares the indexes on dbName
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(dbName)
	m := &Mongo{
		client: client,
		orders: db.Collection(ordersCollection),
		menu:   db.Collection(menuCollection),
	}

	if err := m.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customer_phone_number", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}

	_, err = m.menu.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "item_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create menu index: %w", err)
	}

	return nil
}

// CreateOrder inserts a new order document under a fresh uuid
func (m *Mongo) CreateOrder(ctx context.Context, order models.NewOrder) (string, error) {
	doc := models.Order{
		ID:                  uuid.NewString(),
		Items:               order.Items,
		DeliveryAddress:     order.DeliveryAddress,
		CustomerPhoneNumber: order.CustomerPhoneNumber,
		SpecialRequests:     order.SpecialRequests,
		Status:              models.StatusCreated,
		CreatedAt:           time.Now().UTC(),
	}

	if _, err := m.orders.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	return doc.ID, nil
}

// GetOrderByID finds the order document with the given id
func (m *Mongo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := m.orders.FindOne(ctx, bson.M{"order_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	return &order, nil
}

// GetMenuItemName looks up a menu item name
func (m *Mongo) GetMenuItemName(ctx context.Context, itemID int) (string, bool, error) {
	var item models.MenuItem
	err := m.menu.FindOne(ctx, bson.M{"item_id": itemID}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find menu item %d: %w", itemID, err)
	}
	return item.Name, true, nil
}

// GetOrdersByPhone lists the orders for a phone number, newest first
func (m *Mongo) GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.orders.Find(ctx, bson.M{"customer_phone_number": phone}, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders by phone: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// SeedMenu upserts menu items by item id
func (m *Mongo) SeedMenu(ctx context.Context, items []models.MenuItem) error {
	for _, item := range items {
		_, err := m.menu.UpdateOne(ctx,
			bson.M{"item_id": item.ID},
			bson.M{"$set": bson.M{"name": item.Name}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert menu item %d: %w", item.ID, err)
		}
	}
	return nil
}

// Close disconnects the client
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
