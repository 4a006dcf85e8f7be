package models

import "time"

// GatewayOrder binds a gateway-side order to the milestone it was created for.
type GatewayOrder struct {
	GatewayOrderID string    `json:"gateway_order_id"`
	OrderID        string    `json:"order_id"`
	MilestoneID    string    `json:"milestone_id"`
	Amount         Amount    `json:"amount"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}

type Transaction struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	MilestoneID      string    `json:"milestone_id"`
	Amount           Amount    `json:"amount"`
	PaymentMode      string    `json:"payment_mode"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	GatewaySignature string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

const OnlinePaymentMode = "ONLINE"
