package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chat-gateway/internal/channel"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

const maxBodyBytes = 1 << 20

type contextKey string

const requestIDKey contextKey = "request_id"

// PlaceOrder handles POST /chat/place-order
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	body, err := readBody(w, r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Failed to read request body", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	orderID, err := h.orders.PlaceOrder(ctx, body, requestID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to place order", requestID)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order_id": orderID,
		"message":  "Order placed successfully",
	}, requestID)
}

// OrderStatus handles GET /chat/order-status
func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := h.orders.OrdersByPhone(ctx, r.URL.Query().Get("phone_number"), requestID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to load orders", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, orders, requestID)
}

// NotifyStatus handles POST /chat/notify-status. order_id may be a string or a number.
func (h *Handler) NotifyStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	body, err := readBody(w, r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Failed to read request body", requestID)
		return
	}

	// an empty object counts as no data, like an empty body
	var fields map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &fields) != nil || len(fields) == 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "No data provided", requestID)
		return
	}

	orderID, ok := parseOrderID(fields["order_id"])
	if !ok {
		h.writeErrorResponse(w, http.StatusBadRequest, "order_id is required", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if _, err := h.notifier.Notify(ctx, orderID, requestID); err != nil {
		h.writeServiceError(w, err, "Failed to send notification", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Notification sent successfully",
	}, requestID)
}

// VerifyWebhook handles the GET /chat/webhook subscription handshake
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := channel.VerifyWebhook(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"), h.verifyToken)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !ok {
		h.logger.Warn("webhook_verification_failed", "Webhook verification failed", requestIDFrom(r), map[string]interface{}{
			"mode": q.Get("hub.mode"),
		})
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "Verification failed")
		return
	}

	h.logger.Info("webhook_verified", "Webhook verified", requestIDFrom(r), nil)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// ReceiveWebhook handles POST /chat/webhook
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var payload channel.WebhookPayload
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		h.logger.Debug("validation_failed", "Failed to parse webhook body", requestID, map[string]interface{}{
			"error": err.Error(),
		})
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	status := h.receiver.ProcessEvent(r.Context(), payload, requestID)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": status}, requestID)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                   "healthy",
		"active_whatsapp_sessions": h.receiver.ActiveChatSessions(),
		"active_call_sessions":     h.receiver.ActiveCallSessions(),
	}, requestIDFrom(r))
}

// writeServiceError maps a service error to its status code. Store failures never leak their cause.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback, requestID string) {
	var (
		validationErr  *models.ValidationError
		notFoundErr    *models.NotFoundError
		persistenceErr *models.PersistenceError
		deliveryErr    *models.DeliveryError
	)

	switch {
	case errors.As(err, &validationErr):
		h.writeErrorResponse(w, http.StatusBadRequest, validationErr.Message, requestID)
	case errors.As(err, &notFoundErr):
		h.writeErrorResponse(w, http.StatusNotFound, notFoundErr.Error(), requestID)
	case errors.As(err, &deliveryErr):
		message := fallback
		if deliveryErr.Err != nil {
			message = deliveryErr.Err.Error()
		}
		h.writeErrorResponse(w, http.StatusInternalServerError, message, requestID)
	case errors.As(err, &persistenceErr):
		h.writeErrorResponse(w, http.StatusInternalServerError, fallback, requestID)
	default:
		h.logger.Error("request_failed", "Unhandled service error", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, fallback, requestID)
	}
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	h.writeJSON(w, statusCode, map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}, requestID)
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// parseOrderID accepts "42" or 42. Empty strings, zero and other JSON types are rejected.
func parseOrderID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil && f != 0 {
			return n.String(), true
		}
	}
	return "", false
}

// withLogging adds request logging middleware and a request id
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.Header.Get("User-Agent"),
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	})
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
