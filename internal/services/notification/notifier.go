// Package notification turns order status changes into customer messages.
package notification

import (
	"context"
	"errors"
	"time"

	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

// Store is the read side the notifier needs
type Store interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetMenuItemName(ctx context.Context, itemID int) (string, bool, error)
}

// Sender delivers a text message to a customer address
type Sender interface {
	SendMessage(ctx context.Context, to, text string) error
}

// Publisher puts an event on the bus
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Notification describes a message that was sent
type Notification struct {
	OrderID   string
	Recipient string
	Status    models.OrderStatus
	Text      string
	// Unresolved lists item ids that had no menu entry and were left out of Text
	Unresolved []string
}

// Notifier loads an order, renders its status message and sends it to the customer
type Notifier struct {
	store     Store
	sender    Sender
	publisher Publisher
	logger    *logger.Logger
}

// NewNotifier creates a new status notifier
func NewNotifier(store Store, sender Sender, publisher Publisher, log *logger.Logger) *Notifier {
	return &Notifier{
		store:     store,
		sender:    sender,
		publisher: publisher,
		logger:    log,
	}
}

// Notify sends one status message for the order. At most one message is sent per call, and none
// when the order is unknown or has no contact.
func (n *Notifier) Notify(ctx context.Context, orderID, requestID string) (*Notification, error) {
	if orderID == "" {
		return nil, models.NewValidationError("order_id is required")
	}

	order, err := n.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return nil, &models.NotFoundError{Entity: "Order", ID: orderID}
		}
		n.logger.Error("order_lookup_failed", "Failed to load order", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, &models.PersistenceError{Op: "get order", Err: err}
	}

	if order.CustomerPhoneNumber == "" {
		return nil, models.NewValidationError("No phone number for this order")
	}

	resolved, unresolved, err := n.resolveItems(ctx, order.Items)
	if err != nil {
		n.logger.Error("menu_lookup_failed", "Failed to resolve menu items", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, &models.PersistenceError{Op: "get menu item", Err: err}
	}
	if len(unresolved) > 0 {
		n.logger.Warn("menu_items_unresolved", "Order items missing from menu were left out", requestID, map[string]interface{}{
			"order_id": orderID,
			"item_ids": unresolved,
		})
	}

	result := &Notification{
		OrderID:    order.ID,
		Recipient:  order.CustomerPhoneNumber,
		Status:     order.Status,
		Text:       ComposeMessage(order.Status, ComposeItems(resolved), order.DeliveryAddress),
		Unresolved: unresolved,
	}

	sendErr := n.sender.SendMessage(ctx, result.Recipient, result.Text)
	n.publishOutcome(ctx, result, sendErr, requestID)

	if sendErr != nil {
		n.logger.Error("notification_failed", "Failed to send status notification", requestID, sendErr, map[string]interface{}{
			"order_id": orderID,
			"status":   string(order.Status),
		})
		return nil, &models.DeliveryError{To: result.Recipient, Err: sendErr}
	}

	n.logger.Info("notification_sent", "Status notification sent", requestID, map[string]interface{}{
		"order_id": orderID,
		"status":   string(order.Status),
	})
	return result, nil
}

func (n *Notifier) resolveItems(ctx context.Context, items models.ItemSet) ([]ResolvedItem, []string, error) {
	var resolved []ResolvedItem
	var unresolved []string

	for _, item := range items {
		menuID, ok := item.MenuID()
		if !ok {
			unresolved = append(unresolved, item.ItemID)
			continue
		}
		name, found, err := n.store.GetMenuItemName(ctx, menuID)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			unresolved = append(unresolved, item.ItemID)
			continue
		}
		resolved = append(resolved, ResolvedItem{Name: name, Quantity: item.Quantity})
	}

	return resolved, unresolved, nil
}

func (n *Notifier) publishOutcome(ctx context.Context, result *Notification, sendErr error, requestID string) {
	msg := models.NotificationMessage{
		OrderID:    result.OrderID,
		Recipient:  result.Recipient,
		Status:     result.Status,
		Text:       result.Text,
		Delivered:  sendErr == nil,
		Unresolved: result.Unresolved,
		Timestamp:  time.Now().UTC(),
	}
	if sendErr != nil {
		msg.Error = sendErr.Error()
	}

	if err := n.publisher.Publish(ctx, models.TopicOrderNotification, msg); err != nil {
		n.logger.Warn("notification_publish_failed", "Failed to publish notification event", requestID, map[string]interface{}{
			"order_id": result.OrderID,
			"error":    err.Error(),
		})
	}
}
