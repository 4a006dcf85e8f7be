package schemas

import "github.com/Bessima/bookbind-pay/internal/models"

type CreatePaymentOrderRequest struct {
	OrderID     string `json:"order_id" validate:"required"`
	MilestoneID string `json:"milestone_id,omitempty"`
}

// PaymentOrderResponse carries what the client needs to open the gateway checkout.
type PaymentOrderResponse struct {
	GatewayOrderID string        `json:"gateway_order_id"`
	Amount         models.Amount `json:"amount"`
	Currency       string        `json:"currency"`
	GatewayKeyID   string        `json:"gateway_key_id"`
	OrderID        string        `json:"order_id"`
	MilestoneID    string        `json:"milestone_id"`
}

type VerifyPaymentRequest struct {
	OrderID          string `json:"order_id" validate:"required"`
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	GatewaySignature string `json:"gateway_signature" validate:"required"`
}

func (r VerifyPaymentRequest) Complete() bool {
	return r.OrderID != "" && r.GatewayOrderID != "" && r.GatewayPaymentID != "" && r.GatewaySignature != ""
}

type VerifyPaymentResponse struct {
	Status      string             `json:"status"`
	Message     string             `json:"message"`
	OrderID     string             `json:"order_id"`
	MilestoneID string             `json:"milestone_id"`
	AmountPaid  models.Amount      `json:"amount_paid"`
	OrderStatus models.OrderStatus `json:"order_status"`
}
