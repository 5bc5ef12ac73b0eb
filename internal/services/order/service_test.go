package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

type MockStore struct {
	CreateOrderFunc      func(ctx context.Context, order models.NewOrder) (string, error)
	GetOrdersByPhoneFunc func(ctx context.Context, phone string) ([]models.Order, error)

	created []models.NewOrder
}

func (m *MockStore) CreateOrder(ctx context.Context, order models.NewOrder) (string, error) {
	m.created = append(m.created, order)
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, order)
	}
	return "1", nil
}

func (m *MockStore) GetOrdersByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	if m.GetOrdersByPhoneFunc != nil {
		return m.GetOrdersByPhoneFunc(ctx, phone)
	}
	return nil, nil
}

type MockPublisher struct {
	topics []string
	err    error
}

func (m *MockPublisher) Publish(_ context.Context, topic string, _ any) error {
	m.topics = append(m.topics, topic)
	return m.err
}

func newTestService(store *MockStore, pub *MockPublisher) *Service {
	return NewService(store, pub, logger.Discard())
}

const validOrder = `{"items": {"12": 2, "3": 1}, "delivery_address": "221B Baker St", "phone_number": "+15550001", "special_requests": "no onions"}`

func TestPlaceOrder(t *testing.T) {
	store := &MockStore{CreateOrderFunc: func(_ context.Context, _ models.NewOrder) (string, error) {
		return "1001", nil
	}}
	pub := &MockPublisher{}
	svc := newTestService(store, pub)

	id, err := svc.PlaceOrder(context.Background(), []byte(validOrder), "req")
	require.NoError(t, err)
	assert.Equal(t, "1001", id)

	require.Len(t, store.created, 1)
	got := store.created[0]
	assert.Equal(t, models.ItemSet{{ItemID: "12", Quantity: 2}, {ItemID: "3", Quantity: 1}}, got.Items)
	assert.Equal(t, "221B Baker St", got.DeliveryAddress)
	assert.Equal(t, "+15550001", got.CustomerPhoneNumber)
	require.NotNil(t, got.SpecialRequests)
	assert.Equal(t, "no onions", *got.SpecialRequests)

	assert.Equal(t, []string{models.TopicOrderPlaced}, pub.topics)
}

func TestPlaceOrderArgsWrapperIsEquivalent(t *testing.T) {
	bare := &MockStore{}
	wrapped := &MockStore{}

	_, err := newTestService(bare, &MockPublisher{}).PlaceOrder(context.Background(), []byte(validOrder), "req")
	require.NoError(t, err)
	_, err = newTestService(wrapped, &MockPublisher{}).PlaceOrder(context.Background(), []byte(`{"args": `+validOrder+`}`), "req")
	require.NoError(t, err)

	assert.Equal(t, bare.created, wrapped.created)
}

func TestPlaceOrderValidationWritesNothing(t *testing.T) {
	bodies := []string{
		``,
		`{"args": null}`,
		`{"items": {"1": 1}}`,
		`{"items": {"1": -1}, "delivery_address": "x", "phone_number": "+1"}`,
	}

	for _, body := range bodies {
		store := &MockStore{}
		pub := &MockPublisher{}
		_, err := newTestService(store, pub).PlaceOrder(context.Background(), []byte(body), "req")

		var vErr *models.ValidationError
		require.True(t, errors.As(err, &vErr), "body %q", body)
		assert.Empty(t, store.created)
		assert.Empty(t, pub.topics)
	}
}

func TestPlaceOrderMissingFieldsListed(t *testing.T) {
	_, err := newTestService(&MockStore{}, &MockPublisher{}).PlaceOrder(context.Background(), []byte(`{"items": {"1": 1}}`), "req")

	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []string{"delivery_address", "phone_number"}, vErr.Fields)
}

func TestPlaceOrderStoreFailure(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, models.NewOrder) (string, error)
	}{
		{name: "store error", fn: func(context.Context, models.NewOrder) (string, error) {
			return "", errors.New("connection refused")
		}},
		{name: "empty id", fn: func(context.Context, models.NewOrder) (string, error) {
			return "", nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &MockPublisher{}
			_, err := newTestService(&MockStore{CreateOrderFunc: tt.fn}, pub).PlaceOrder(context.Background(), []byte(validOrder), "req")

			var pErr *models.PersistenceError
			require.True(t, errors.As(err, &pErr))
			assert.Empty(t, pub.topics)
		})
	}
}

func TestPlaceOrderPublishFailureIsIgnored(t *testing.T) {
	pub := &MockPublisher{err: errors.New("bus down")}
	id, err := newTestService(&MockStore{}, pub).PlaceOrder(context.Background(), []byte(validOrder), "req")
	require.NoError(t, err)
	assert.Equal(t, "1", id)
}

func TestOrdersByPhone(t *testing.T) {
	store := &MockStore{GetOrdersByPhoneFunc: func(_ context.Context, phone string) ([]models.Order, error) {
		if phone == "+1" {
			return []models.Order{{ID: "7", CustomerPhoneNumber: "+1"}}, nil
		}
		return nil, nil
	}}
	svc := newTestService(store, &MockPublisher{})

	orders, err := svc.OrdersByPhone(context.Background(), "+1", "req")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "7", orders[0].ID)

	orders, err = svc.OrdersByPhone(context.Background(), "+2", "req")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	_, err = svc.OrdersByPhone(context.Background(), "", "req")
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "phone_number is required", vErr.Error())
}

func TestOrdersByPhoneStoreFailure(t *testing.T) {
	store := &MockStore{GetOrdersByPhoneFunc: func(context.Context, string) ([]models.Order, error) {
		return nil, errors.New("timeout")
	}}
	_, err := newTestService(store, &MockPublisher{}).OrdersByPhone(context.Background(), "+1", "req")

	var pErr *models.PersistenceError
	require.True(t, errors.As(err, &pErr))
}
