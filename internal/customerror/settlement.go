package customerror

import (
	"errors"
	"fmt"
)

// Kind classifies why a payment action was rejected or an attempt ended.
type Kind string

const (
	Unauthenticated            Kind = "Unauthenticated"
	PolicyViolation            Kind = "PolicyViolation"
	GatewayLoadFailed          Kind = "GatewayLoadFailed"
	GatewayOrderCreationFailed Kind = "GatewayOrderCreationFailed"
	GatewayDeclined            Kind = "GatewayDeclined"
	UserCancelled              Kind = "UserCancelled"
	VerificationFailed         Kind = "VerificationFailed"
	VerificationTimeout        Kind = "VerificationTimeout"
	NetworkError               Kind = "NetworkError"
)

var (
	ErrUnauthenticated   = errors.New("no valid session")
	ErrMilestoneLocked   = errors.New("milestone is locked until earlier milestones are paid")
	ErrMilestonePaid     = errors.New("milestone is already paid")
	ErrAttemptInProgress = errors.New("a payment attempt for this order is already in progress")
	ErrUnknownOrder      = errors.New("unknown order")
	ErrUnknownMilestone  = errors.New("unknown milestone")
)

type SettlementError struct {
	Kind    Kind
	Message string
	Err     error
}

func NewSettlementError(kind Kind, err error) *SettlementError {
	return &SettlementError{Kind: kind, Message: UserMessage(kind), Err: err}
}

func (e *SettlementError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// KindOf returns the taxonomy kind carried by err, or "" if there is none.
func KindOf(err error) Kind {
	var settlementErr *SettlementError
	if errors.As(err, &settlementErr) {
		return settlementErr.Kind
	}
	return ""
}

func UserMessage(kind Kind) string {
	switch kind {
	case Unauthenticated:
		return "Please log in to make a payment."
	case PolicyViolation:
		return "This milestone cannot be paid right now."
	case GatewayLoadFailed:
		return "Failed to load payment gateway. Please check your connection."
	case GatewayOrderCreationFailed:
		return "Failed to initiate payment. Please try again."
	case GatewayDeclined:
		return "The payment was declined by the gateway."
	case UserCancelled:
		return "Payment cancelled."
	case VerificationFailed:
		return "Payment verification failed. Your milestone has not been marked as paid."
	case VerificationTimeout:
		return "We could not confirm your payment in time. If money was debited, do not pay again: contact support with your payment reference so it can be reconciled."
	case NetworkError:
		return "Network error during payment."
	}
	return "Payment failed."
}
