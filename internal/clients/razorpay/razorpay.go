package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/models"
	rzp "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"
)

type ProviderOrder struct {
	GatewayOrderID string
	Amount         models.Amount
	Currency       string
	Status         string
}

type ProviderI interface {
	CreateOrder(ctx context.Context, amount models.Amount, currency, receipt string, notes map[string]string) (*ProviderOrder, error)
	VerifyPayment(gatewayOrderID, gatewayPaymentID, gatewaySignature string) bool
	KeyID() string
}

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Provider struct {
	orders    orderCreator
	keyID     string
	keySecret string
}

func NewProvider(keyID, keySecret string) *Provider {
	client := rzp.NewClient(keyID, keySecret)
	return &Provider{orders: client.Order, keyID: keyID, keySecret: keySecret}
}

func (provider *Provider) KeyID() string {
	return provider.keyID
}

func (provider *Provider) CreateOrder(ctx context.Context, amount models.Amount, currency, receipt string, notes map[string]string) (*ProviderOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   int64(amount),
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := provider.orders.Create(data, nil)
	if err != nil {
		logger.Log.Warn("razorpay order creation failed", zap.String("receipt", receipt), zap.Error(err))
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	order, err := parseOrder(body)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("razorpay order created",
		zap.String("gateway_order_id", order.GatewayOrderID),
		zap.String("receipt", receipt),
		zap.Stringer("amount", order.Amount),
	)
	return order, nil
}

// VerifyPayment checks the checkout signature: hex HMAC-SHA256 of
// "order_id|payment_id" keyed with the account secret.
func (provider *Provider) VerifyPayment(gatewayOrderID, gatewayPaymentID, gatewaySignature string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" || gatewaySignature == "" {
		return false
	}
	expected := Sign(provider.keySecret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(gatewaySignature))
}

func Sign(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseOrder(body map[string]interface{}) (*ProviderOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay answered without an order id")
	}

	order := &ProviderOrder{GatewayOrderID: id}
	order.Currency, _ = body["currency"].(string)
	order.Status, _ = body["status"].(string)

	switch amount := body["amount"].(type) {
	case float64:
		order.Amount = models.Amount(amount)
	case int64:
		order.Amount = models.Amount(amount)
	case int:
		order.Amount = models.Amount(amount)
	default:
		return nil, fmt.Errorf("razorpay answered with unexpected amount %v", body["amount"])
	}
	return order, nil
}
