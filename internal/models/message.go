package models

import (
	"time"
)

// Event bus topics. RabbitMQ uses them as routing keys on the orders topic exchange,
// NATS as subjects.
const (
	TopicOrderPlaced         = "order.placed"
	TopicOrderNotification   = "order.notification"
	TopicChatMessageReceived = "chat.message.received"
	TopicOrderStatusPrefix   = "order.status."
)

// OrderPlacedMessage is published after an order record is created
type OrderPlacedMessage struct {
	OrderID         string    `json:"order_id"`
	Items           ItemSet   `json:"items"`
	DeliveryAddress string    `json:"delivery_address"`
	PhoneNumber     string    `json:"phone_number"`
	SpecialRequests *string   `json:"special_requests,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// StatusUpdateMessage is consumed from the bus and triggers a customer notification
type StatusUpdateMessage struct {
	OrderID   string    `json:"order_id"`
	NewStatus string    `json:"new_status,omitempty"`
	ChangedBy string    `json:"changed_by,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationMessage records the outcome of a status notification attempt
type NotificationMessage struct {
	OrderID    string      `json:"order_id"`
	Recipient  string      `json:"recipient"`
	Status     OrderStatus `json:"status"`
	Text       string      `json:"text"`
	Delivered  bool        `json:"delivered"`
	Error      string      `json:"error,omitempty"`
	Unresolved []string    `json:"unresolved_items,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// InboundChatMessage is a customer message received through the channel webhook
type InboundChatMessage struct {
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	Type      string    `json:"type"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateOrderPlacedMessage builds the event for a freshly created order
func CreateOrderPlacedMessage(orderID string, req *PlaceOrderRequest) *OrderPlacedMessage {
	return &OrderPlacedMessage{
		OrderID:         orderID,
		Items:           req.Items,
		DeliveryAddress: req.DeliveryAddress,
		PhoneNumber:     req.PhoneNumber,
		SpecialRequests: req.SpecialRequests,
		Timestamp:       time.Now().UTC(),
	}
}

// StatusRoutingKey returns the routing key used for status change events of the given status
func StatusRoutingKey(status string) string {
	return TopicOrderStatusPrefix + status
}
