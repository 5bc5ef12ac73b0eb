package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-gateway/internal/channel"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/messaging"
	"chat-gateway/internal/models"
	"chat-gateway/internal/services/notification"
	"chat-gateway/internal/services/order"
	"chat-gateway/internal/store"
)

type recordingSender struct {
	to   []string
	text []string
	err  error
}

func (s *recordingSender) SendMessage(_ context.Context, to, text string) error {
	s.to = append(s.to, to)
	s.text = append(s.text, text)
	return s.err
}

type testEnv struct {
	handler http.Handler
	store   *store.SQLite
	sender  *recordingSender
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	require.NoError(t, db.SeedMenu(context.Background(), []models.MenuItem{
		{ID: 1, Name: "Burger"},
		{ID: 2, Name: "Fries"},
	}))

	log := logger.Discard()
	publisher := messaging.NoopPublisher{}
	sender := &recordingSender{}

	orders := order.NewService(db, publisher, log)
	notifier := notification.NewNotifier(db, sender, publisher, log)
	receiver := channel.NewReceiver(channel.NewSessionTracker(time.Hour), channel.NewSessionTracker(time.Hour), nil, log)

	return &testEnv{
		handler: NewHandler(orders, notifier, receiver, "verify-me", log).Routes(),
		store:   db,
		sender:  sender,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestPlaceOrderAndNotify(t *testing.T) {
	env := setupTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/chat/place-order",
		`{"args": {"items": {"1": 2, "2": 1}, "delivery_address": "12 High St", "phone_number": "+15550001"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Order placed successfully", resp["message"])
	orderID, ok := resp["order_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, orderID)

	rec, resp = env.do(t, http.MethodPost, "/chat/notify-status", `{"order_id": "`+orderID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Notification sent successfully", resp["message"])

	require.Len(t, env.sender.text, 1)
	assert.Equal(t, "+15550001", env.sender.to[0])
	assert.Equal(t, "Your order of Burger x2, Fries status has been updated to CREATED.", env.sender.text[0])
}

func TestNotifyStatusNumericOrderID(t *testing.T) {
	env := setupTestEnv(t)

	id, err := env.store.CreateOrder(context.Background(), models.NewOrder{
		Items:               models.ItemSet{{ItemID: "2", Quantity: 3}},
		DeliveryAddress:     "x",
		CustomerPhoneNumber: "+1",
	})
	require.NoError(t, err)

	rec, _ := env.do(t, http.MethodPost, "/chat/notify-status", `{"order_id": `+id+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Your order of Fries x3 status has been updated to CREATED."}, env.sender.text)
}

func TestNotifyStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "empty body", body: ``, wantCode: http.StatusBadRequest, wantErr: "No data provided"},
		{name: "empty object", body: `{}`, wantCode: http.StatusBadRequest, wantErr: "No data provided"},
		{name: "null body", body: `null`, wantCode: http.StatusBadRequest, wantErr: "No data provided"},
		{name: "missing order id", body: `{"status": "DELIVERED"}`, wantCode: http.StatusBadRequest, wantErr: "order_id is required"},
		{name: "empty order id", body: `{"order_id": ""}`, wantCode: http.StatusBadRequest, wantErr: "order_id is required"},
		{name: "unknown order", body: `{"order_id": "9999"}`, wantCode: http.StatusNotFound, wantErr: "Order not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			rec, resp := env.do(t, http.MethodPost, "/chat/notify-status", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, resp["error"])
			assert.Empty(t, env.sender.text)
		})
	}
}

func TestNotifyStatusDeliveryFailure(t *testing.T) {
	env := setupTestEnv(t)
	env.sender.err = errors.New("recipient not on whatsapp")

	id, err := env.store.CreateOrder(context.Background(), models.NewOrder{
		Items:               models.ItemSet{{ItemID: "1", Quantity: 1}},
		DeliveryAddress:     "x",
		CustomerPhoneNumber: "+1",
	})
	require.NoError(t, err)

	rec, resp := env.do(t, http.MethodPost, "/chat/notify-status", `{"order_id": "`+id+`"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "recipient not on whatsapp", resp["error"])
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "no body", body: ``, wantErr: "No JSON data provided"},
		{name: "null args", body: `{"args": null}`, wantErr: "No order data provided"},
		{name: "missing fields", body: `{"items": {"1": 1}}`, wantErr: "Missing required fields: delivery_address, phone_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			rec, resp := env.do(t, http.MethodPost, "/chat/place-order", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantErr, resp["error"])

			orders, err := env.store.GetOrdersByPhone(context.Background(), "+1")
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestOrderStatus(t *testing.T) {
	env := setupTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/chat/order-status", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "phone_number is required", resp["error"])

	_, err := env.store.CreateOrder(context.Background(), models.NewOrder{
		Items:               models.ItemSet{{ItemID: "1", Quantity: 1}},
		DeliveryAddress:     "x",
		CustomerPhoneNumber: "+1555",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/chat/order-status?phone_number=%2B1555", nil)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "+1555", orders[0].CustomerPhoneNumber)
}

func TestWebhookVerification(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/chat/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=8842", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "8842", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/chat/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=8842", nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Verification failed", rec.Body.String())
}

func TestWebhookReceiveAndHealth(t *testing.T) {
	env := setupTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/chat/webhook", `{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"field": "messages", "value": {"messages": [{"id": "m1", "from": "1555", "type": "text", "timestamp": "1700000000", "text": {"body": "hi"}}]}}]}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "processed", resp["status"])

	rec, resp = env.do(t, http.MethodPost, "/chat/webhook", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(1), resp["active_whatsapp_sessions"])
	assert.Equal(t, float64(0), resp["active_call_sessions"])
}

type failingOrders struct{}

func (failingOrders) PlaceOrder(context.Context, []byte, string) (string, error) {
	return "", &models.PersistenceError{Op: "create order", Err: errors.New("pq: password authentication failed")}
}

func (failingOrders) OrdersByPhone(context.Context, string, string) ([]models.Order, error) {
	return nil, &models.PersistenceError{Op: "get orders", Err: errors.New("timeout")}
}

func TestPersistenceErrorsStayGeneric(t *testing.T) {
	receiver := channel.NewReceiver(channel.NewSessionTracker(time.Hour), channel.NewSessionTracker(time.Hour), nil, logger.Discard())
	h := NewHandler(failingOrders{}, nil, receiver, "", logger.Discard()).Routes()

	req := httptest.NewRequest(http.MethodPost, "/chat/place-order", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Failed to place order"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestParseOrderID(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: `"42"`, want: "42", wantOK: true},
		{raw: `42`, want: "42", wantOK: true},
		{raw: `" 7 "`, want: "7", wantOK: true},
		{raw: `0`},
		{raw: `""`},
		{raw: `null`},
		{raw: `true`},
		{raw: `{}`},
	}

	for _, tt := range tests {
		got, ok := parseOrderID(json.RawMessage(tt.raw))
		assert.Equal(t, tt.wantOK, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
