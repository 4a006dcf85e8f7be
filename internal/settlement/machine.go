// Package settlement runs one payment attempt for a milestone through
// create-order, checkout and verification, and patches the ledger only after
// the backend has verified the receipt.
package settlement

import (
	"errors"
	"fmt"
)

type State string

const (
	Idle            State = "IDLE"
	Initiating      State = "INITIATING"
	AwaitingGateway State = "AWAITING_GATEWAY"
	Verifying       State = "VERIFYING"
	Settled         State = "SETTLED"
	Failed          State = "FAILED"
	Cancelled       State = "CANCELLED"
)

var ErrIllegalTransition = errors.New("illegal settlement transition")

var transitions = map[State][]State{
	Idle:            {Initiating},
	Initiating:      {AwaitingGateway, Failed, Cancelled},
	AwaitingGateway: {Verifying, Failed, Cancelled},
	Verifying:       {Settled, Failed, Cancelled},
}

func (s State) Terminal() bool {
	return s == Settled || s == Failed || s == Cancelled
}

func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}
