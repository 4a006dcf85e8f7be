package razorpay

import (
	"context"
	"errors"
	"testing"

	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	args := m.Called(data, extraHeaders)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func TestProvider_VerifyPayment(t *testing.T) {
	provider := &Provider{keyID: "rzp_test_key", keySecret: "secret"}
	valid := Sign("secret", "order_gw1", "pay_1")

	testCases := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{name: "valid signature", orderID: "order_gw1", paymentID: "pay_1", signature: valid, want: true},
		{name: "tampered payment", orderID: "order_gw1", paymentID: "pay_2", signature: valid, want: false},
		{name: "tampered order", orderID: "order_gw2", paymentID: "pay_1", signature: valid, want: false},
		{name: "signed with another secret", orderID: "order_gw1", paymentID: "pay_1", signature: Sign("other", "order_gw1", "pay_1"), want: false},
		{name: "empty signature", orderID: "order_gw1", paymentID: "pay_1", signature: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, provider.VerifyPayment(tc.orderID, tc.paymentID, tc.signature))
		})
	}
}

func TestSign_KnownVector(t *testing.T) {
	// HMAC-SHA256("secret", "order_gw1|pay_1")
	signature := Sign("secret", "order_gw1", "pay_1")

	assert.Len(t, signature, 64)
	assert.Equal(t, signature, Sign("secret", "order_gw1", "pay_1"))
	assert.NotEqual(t, signature, Sign("secret", "pay_1", "order_gw1"))
}

func TestProvider_CreateOrder(t *testing.T) {
	orders := new(MockOrders)
	provider := &Provider{orders: orders, keyID: "rzp_test_key", keySecret: "secret"}

	orders.On("Create", map[string]interface{}{
		"amount":   int64(200000),
		"currency": "INR",
		"receipt":  "order_o1_m2",
		"notes":    map[string]string{"internal_order_id": "o1"},
	}, map[string]string(nil)).Return(map[string]interface{}{
		"id":       "order_gw1",
		"amount":   float64(200000),
		"currency": "INR",
		"status":   "created",
	}, nil)

	order, err := provider.CreateOrder(context.Background(), 200000, "INR", "order_o1_m2",
		map[string]string{"internal_order_id": "o1"})

	require.NoError(t, err)
	assert.Equal(t, "order_gw1", order.GatewayOrderID)
	assert.Equal(t, models.Amount(200000), order.Amount)
	assert.Equal(t, "created", order.Status)
	assert.Equal(t, "rzp_test_key", provider.KeyID())
	orders.AssertExpectations(t)
}

func TestProvider_CreateOrder_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		body   map[string]interface{}
		apiErr error
	}{
		{name: "api error", apiErr: errors.New("BAD_REQUEST_ERROR")},
		{name: "missing id", body: map[string]interface{}{"amount": float64(100)}},
		{name: "bad amount", body: map[string]interface{}{"id": "order_gw1", "amount": "100"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := new(MockOrders)
			provider := &Provider{orders: orders, keySecret: "secret"}
			if tc.apiErr != nil {
				orders.On("Create", mock.Anything, mock.Anything).Return(nil, tc.apiErr)
			} else {
				orders.On("Create", mock.Anything, mock.Anything).Return(tc.body, nil)
			}

			order, err := provider.CreateOrder(context.Background(), 100, "INR", "r", nil)

			assert.Nil(t, order)
			assert.Error(t, err)
		})
	}
}
