// Package checkout hides the third-party payment gateway behind a small port.
//
// A Gateway opens the checkout for one gateway order and reports exactly one
// Outcome: a receipt, a dismissal by the user, or a decline by the gateway.
package checkout

import (
	"context"

	"github.com/Bessima/bookbind-pay/internal/models"
)

type Params struct {
	Key            string
	Amount         models.Amount
	Currency       string
	GatewayOrderID string
	OrderID        string
	MilestoneID    string
	Description    string
	Email          string
}

type OutcomeKind string

const (
	Paid      OutcomeKind = "PAID"
	Dismissed OutcomeKind = "DISMISSED"
	Declined  OutcomeKind = "DECLINED"
)

type Receipt struct {
	PaymentID      string `json:"razorpay_payment_id"`
	GatewayOrderID string `json:"razorpay_order_id"`
	Signature      string `json:"razorpay_signature"`
}

type Decline struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

type Outcome struct {
	Kind    OutcomeKind
	Receipt *Receipt
	Decline *Decline
}

type Gateway interface {
	Open(ctx context.Context, params Params) (Outcome, error)
}
