package messaging

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"chat-gateway/internal/logger"
)

// NATSPublisher publishes gateway events as NATS subjects
type NATSPublisher struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string, log *logger.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("chat-gateway"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, logger: log}, nil
}

// Publish serializes payload to JSON and publishes it on the topic subject
func (p *NATSPublisher) Publish(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := encodeMessage(payload)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(topic, body); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debug("message_published", fmt.Sprintf("Published message to subject %s", topic), "", map[string]interface{}{
		"subject":      topic,
		"message_size": len(body),
	})
	return nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber delivers messages from a subject to a MessageHandler. Core NATS has no
// acknowledgements, so a rejected message is only logged.
type NATSSubscriber struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// NewNATSSubscriber connects to the NATS server at url
func NewNATSSubscriber(url string, log *logger.Logger) (*NATSSubscriber, error) {
	conn, err := nats.Connect(url, nats.Name("chat-gateway-subscriber"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSubscriber{conn: conn, logger: log}, nil
}

// Subscribe blocks until ctx is cancelled
func (s *NATSSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		if decision := handler(ctx, msg.Data); decision != Ack {
			s.logger.Warn("message_dropped", "Message not acknowledged by handler", "", map[string]interface{}{
				"subject":  msg.Subject,
				"decision": decision.String(),
			})
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.logger.Info("consumer_started", fmt.Sprintf("Subscribed to %s", subject), "", map[string]interface{}{
		"subject": subject,
	})

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		s.logger.Error("consumer_cancel_failed", "Failed to unsubscribe", "", err, nil)
	}
	return nil
}

// Close closes the NATS connection
func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
