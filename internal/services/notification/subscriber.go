package notification

import (
	"context"
	"encoding/json"
	"errors"

	"chat-gateway/internal/logger"
	"chat-gateway/internal/messaging"
	"chat-gateway/internal/models"
)

// Subscriber runs the notifier for every status change event taken off the bus
type Subscriber struct {
	notifier *Notifier
	logger   *logger.Logger
}

// NewSubscriber creates a new status subscriber
func NewSubscriber(notifier *Notifier, log *logger.Logger) *Subscriber {
	return &Subscriber{
		notifier: notifier,
		logger:   log,
	}
}

// HandleStatusUpdate is a messaging.MessageHandler for StatusUpdateMessage bodies
func (s *Subscriber) HandleStatusUpdate(ctx context.Context, body []byte) messaging.Decision {
	requestID := logger.GenerateRequestID()

	var update models.StatusUpdateMessage
	if err := json.Unmarshal(body, &update); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse status update message", requestID, err, nil)
		return messaging.Reject
	}

	s.logger.Debug("status_update_received", "Received status update", requestID, map[string]interface{}{
		"order_id":   update.OrderID,
		"new_status": update.NewStatus,
		"changed_by": update.ChangedBy,
	})

	_, err := s.notifier.Notify(ctx, update.OrderID, requestID)
	decision := decide(err)

	var persistenceErr *models.PersistenceError
	if errors.As(err, &persistenceErr) {
		s.logger.Error("status_update_failed", "Store failure while notifying, message dropped", requestID, err, map[string]interface{}{
			"order_id": update.OrderID,
			"decision": decision.String(),
		})
	} else if err != nil {
		s.logger.Warn("status_update_unsent", "Status update did not produce a notification", requestID, map[string]interface{}{
			"order_id": update.OrderID,
			"error":    err.Error(),
			"decision": decision.String(),
		})
	}
	return decision
}

// decide maps a notifier outcome to a settlement. Nothing is redelivered: store and delivery
// failures are rejected.
func decide(err error) messaging.Decision {
	if err == nil {
		return messaging.Ack
	}

	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &notFoundErr):
		return messaging.Ack
	default:
		return messaging.Reject
	}
}
