package order

import (
	"context"
	"errors"

	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

// Store persists new orders and looks up a customer's orders
type Store interface {
	CreateOrder(ctx context.Context, order models.NewOrder) (string, error)
	GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error)
}

// Publisher puts an event on the bus
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Service validates incoming order payloads and records them
type Service struct {
	store     Store
	publisher Publisher
	logger    *logger.Logger
}

// NewService creates a new order service
func NewService(store Store, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    log,
	}
}

// PlaceOrder decodes a raw place-order body (bare or wrapped in "args"), validates it and
// creates exactly one order. Nothing is written when validation fails.
func (s *Service) PlaceOrder(ctx context.Context, body []byte, requestID string) (string, error) {
	req, err := models.DecodePlaceOrder(body)
	if err != nil {
		s.logger.Debug("validation_failed", "Order request rejected", requestID, map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}

	return s.CreateOrder(ctx, req, requestID)
}

// CreateOrder persists an already decoded request
func (s *Service) CreateOrder(ctx context.Context, req *models.PlaceOrderRequest, requestID string) (string, error) {
	orderID, err := s.store.CreateOrder(ctx, req.ToNewOrder())
	if err != nil {
		s.logger.Error("order_creation_failed", "Failed to create order", requestID, err, map[string]interface{}{
			"phone_number": req.PhoneNumber,
		})
		return "", &models.PersistenceError{Op: "create order", Err: err}
	}
	if orderID == "" {
		err := errors.New("store returned no order id")
		s.logger.Error("order_creation_failed", "Failed to create order", requestID, err, nil)
		return "", &models.PersistenceError{Op: "create order", Err: err}
	}

	s.logger.Info("order_created", "Order created successfully", requestID, map[string]interface{}{
		"order_id":   orderID,
		"item_count": len(req.Items),
	})

	msg := models.CreateOrderPlacedMessage(orderID, req)
	if err := s.publisher.Publish(ctx, models.TopicOrderPlaced, msg); err != nil {
		s.logger.Warn("order_publish_failed", "Failed to publish order placed event", requestID, map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
	}

	return orderID, nil
}

// OrdersByPhone returns every order placed from the given contact, newest first
func (s *Service) OrdersByPhone(ctx context.Context, phone, requestID string) ([]models.Order, error) {
	if phone == "" {
		return nil, models.NewValidationError("phone_number is required")
	}

	orders, err := s.store.GetOrdersByPhone(ctx, phone)
	if err != nil {
		s.logger.Error("order_lookup_failed", "Failed to load orders", requestID, err, map[string]interface{}{
			"phone_number": phone,
		})
		return nil, &models.PersistenceError{Op: "get orders", Err: err}
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}
