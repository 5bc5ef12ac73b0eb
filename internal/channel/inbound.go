package channel

import (
	"context"
	"fmt"

	"chat-gateway/internal/models"
)

// Publisher puts an event on the bus
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// PublishingHandler forwards inbound chat messages to the event bus for downstream consumers
type PublishingHandler struct {
	publisher Publisher
}

// NewPublishingHandler creates an InboundHandler that publishes each message on the bus
func NewPublishingHandler(publisher Publisher) *PublishingHandler {
	return &PublishingHandler{publisher: publisher}
}

// HandleInbound publishes msg under the chat.message.received topic
func (h *PublishingHandler) HandleInbound(ctx context.Context, msg models.InboundChatMessage) error {
	if err := h.publisher.Publish(ctx, models.TopicChatMessageReceived, msg); err != nil {
		return fmt.Errorf("publish inbound message %s: %w", msg.MessageID, err)
	}
	return nil
}
