// Package server exposes the gateway over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chat-gateway/internal/channel"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
	"chat-gateway/internal/services/notification"
)

// OrderService is the order intake used by the chat routes
type OrderService interface {
	PlaceOrder(ctx context.Context, body []byte, requestID string) (string, error)
	OrdersByPhone(ctx context.Context, phone, requestID string) ([]models.Order, error)
}

// StatusNotifier sends order status messages
type StatusNotifier interface {
	Notify(ctx context.Context, orderID, requestID string) (*notification.Notification, error)
}

// WebhookReceiver handles channel webhook deliveries and reports session counts
type WebhookReceiver interface {
	ProcessEvent(ctx context.Context, payload channel.WebhookPayload, requestID string) string
	ActiveChatSessions() int
	ActiveCallSessions() int
}

// Handler serves the chat and health routes
type Handler struct {
	orders      OrderService
	notifier    StatusNotifier
	receiver    WebhookReceiver
	verifyToken string
	logger      *logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(orders OrderService, notifier StatusNotifier, receiver WebhookReceiver, verifyToken string, log *logger.Logger) *Handler {
	return &Handler{
		orders:      orders,
		notifier:    notifier,
		receiver:    receiver,
		verifyToken: verifyToken,
		logger:      log,
	}
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.withLogging)

	r.Get("/health", h.HealthCheck)

	r.Route("/chat", func(r chi.Router) {
		r.Get("/webhook", h.VerifyWebhook)
		r.Post("/webhook", h.ReceiveWebhook)
		r.Post("/place-order", h.PlaceOrder)
		r.Get("/order-status", h.OrderStatus)
		r.Post("/notify-status", h.NotifyStatus)
	})

	return r
}
