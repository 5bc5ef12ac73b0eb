package channel

import (
	"context"
	"crypto/subtle"
	"strconv"
	"time"

	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

const (
	subscribeMode         = "subscribe"
	businessAccountObject = "whatsapp_business_account"

	EventProcessed = "processed"
	EventIgnored   = "ignored"
	EventError     = "error"
)

// VerifyWebhook answers the subscription handshake. The challenge is echoed only when mode is
// "subscribe" and token equals the configured secret; an empty secret never matches.
func VerifyWebhook(mode, token, challenge, secret string) (string, bool) {
	if mode != subscribeMode || secret == "" {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return "", false
	}
	return challenge, true
}

// WebhookPayload is the body the Cloud API posts to the webhook
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry is one business account entry of a webhook payload
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange names the changed field and carries its value
type WebhookChange struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue is the payload of a webhook change
type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Statuses         []MessageStatus  `json:"statuses,omitempty"`
	Calls            []CallEvent      `json:"calls,omitempty"`
}

// InboundMessage is a message a customer sent to the business number
type InboundMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

// MessageStatus reports delivery progress of an outbound message
type MessageStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
	Timestamp   string `json:"timestamp"`
}

// CallEvent is a calling webhook entry; Event is "connect" or "terminate".
type CallEvent struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

// InboundHandler receives customer messages after session bookkeeping
type InboundHandler interface {
	HandleInbound(ctx context.Context, msg models.InboundChatMessage) error
}

// Receiver routes webhook events into session accounting and the inbound handler
type Receiver struct {
	chats   *SessionTracker
	calls   *SessionTracker
	handler InboundHandler
	logger  *logger.Logger
}

// NewReceiver creates a receiver that tracks chat and call sessions and forwards inbound messages to handler
func NewReceiver(chats, calls *SessionTracker, handler InboundHandler, log *logger.Logger) *Receiver {
	return &Receiver{
		chats:   chats,
		calls:   calls,
		handler: handler,
		logger:  log,
	}
}

// ProcessEvent handles one webhook delivery and returns a short status for the response body
func (r *Receiver) ProcessEvent(ctx context.Context, payload WebhookPayload, requestID string) string {
	if payload.Object != businessAccountObject {
		r.logger.Debug("webhook_ignored", "Webhook object is not a business account", requestID, map[string]interface{}{
			"object": payload.Object,
		})
		return EventIgnored
	}

	result := EventProcessed
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := r.handleMessage(ctx, msg, requestID); err != nil {
					result = EventError
				}
			}
			for _, st := range change.Value.Statuses {
				r.logger.Debug("message_status", "Outbound message status update", requestID, map[string]interface{}{
					"message_id": st.ID,
					"status":     st.Status,
					"recipient":  st.RecipientID,
				})
			}
			for _, call := range change.Value.Calls {
				r.handleCall(call, requestID)
			}
		}
	}

	return result
}

func (r *Receiver) handleMessage(ctx context.Context, msg InboundMessage, requestID string) error {
	r.chats.Touch(msg.From)

	inbound := models.InboundChatMessage{
		MessageID: msg.ID,
		From:      msg.From,
		Type:      msg.Type,
		Timestamp: parseUnix(msg.Timestamp),
	}
	if msg.Text != nil {
		inbound.Text = msg.Text.Body
	}

	r.logger.Info("message_received", "Inbound WhatsApp message", requestID, map[string]interface{}{
		"from":       msg.From,
		"message_id": msg.ID,
		"type":       msg.Type,
	})

	if r.handler == nil {
		return nil
	}
	if err := r.handler.HandleInbound(ctx, inbound); err != nil {
		r.logger.Error("inbound_handler_failed", "Failed to handle inbound message", requestID, err, map[string]interface{}{
			"message_id": msg.ID,
		})
		return err
	}
	return nil
}

func (r *Receiver) handleCall(call CallEvent, requestID string) {
	switch call.Event {
	case "connect":
		r.calls.Touch(call.ID)
	case "terminate":
		r.calls.End(call.ID)
	}

	r.logger.Info("call_event", "WhatsApp call event", requestID, map[string]interface{}{
		"call_id": call.ID,
		"event":   call.Event,
		"from":    call.From,
	})
}

// ActiveChatSessions reports the chat sessions seen within the TTL
func (r *Receiver) ActiveChatSessions() int {
	return r.chats.Active()
}

// ActiveCallSessions reports connected calls
func (r *Receiver) ActiveCallSessions() int {
	return r.calls.Active()
}

func parseUnix(ts string) time.Time {
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
