package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"chat-gateway/internal/logger"
)

// Publisher publishes gateway events to the orders topic exchange. The topic is the routing key.
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// Publish serializes payload to JSON and publishes it persistently under topic. A dropped
// connection gets one reconnection attempt; the caller is never held in the retry backoff.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	if p.conn.IsClosed() {
		if err := p.conn.ReconnectOnce(ctx); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := encodeMessage(payload)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		OrdersExchange, // exchange
		topic,          // routing key
		false,          // mandatory
		false,          // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", OrdersExchange),
			"", err, map[string]interface{}{
				"exchange":    OrdersExchange,
				"routing_key": topic,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", OrdersExchange),
		"", map[string]interface{}{
			"exchange":     OrdersExchange,
			"routing_key":  topic,
			"message_size": len(body),
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}

// NoopPublisher drops every event. Used when no event bus is configured.
type NoopPublisher struct{}

// Publish discards the event
func (NoopPublisher) Publish(_ context.Context, _ string, _ any) error { return nil }

// Close is a no-op
func (NoopPublisher) Close() error { return nil }

func encodeMessage(payload any) ([]byte, error) {
	if raw, ok := payload.([]byte); ok {
		return raw, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return body, nil
}
