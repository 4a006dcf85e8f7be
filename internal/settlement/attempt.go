package settlement

import (
	"context"
	"sync"

	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Attempt is one run of the settlement sequence for a single milestone.
// It is never persisted and never resumed once terminal.
type Attempt struct {
	ID          string
	OrderID     string
	MilestoneID string

	mu             sync.RWMutex
	state          State
	history        []State
	gatewayOrderID string
	amount         models.Amount
	err            *customerror.SettlementError
	done           chan struct{}
}

func newAttempt(orderID, milestoneID string) *Attempt {
	return &Attempt{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		MilestoneID: milestoneID,
		state:       Idle,
		history:     []State{Idle},
		done:        make(chan struct{}),
	}
}

func (a *Attempt) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Attempt) History() []State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	history := make([]State, len(a.history))
	copy(history, a.history)
	return history
}

func (a *Attempt) GatewayOrderID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gatewayOrderID
}

func (a *Attempt) Amount() models.Amount {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.amount
}

// Err is the failure reason of a FAILED or CANCELLED attempt.
func (a *Attempt) Err() *customerror.SettlementError {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Done is closed once the attempt reached a terminal state and observers ran.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

func (a *Attempt) Wait(ctx context.Context) (State, error) {
	select {
	case <-a.done:
		if err := a.Err(); err != nil {
			return a.State(), err
		}
		return a.State(), nil
	case <-ctx.Done():
		return a.State(), ctx.Err()
	}
}

func (a *Attempt) bindGatewayOrder(gatewayOrderID string, amount models.Amount) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gatewayOrderID = gatewayOrderID
	a.amount = amount
}

func (a *Attempt) transition(to State, reason *customerror.SettlementError) error {
	a.mu.Lock()
	from := a.state
	if err := checkTransition(from, to); err != nil {
		a.mu.Unlock()
		logger.Log.Error("rejected settlement transition", zap.String("attempt", a.ID), zap.Error(err))
		return err
	}
	a.state = to
	a.history = append(a.history, to)
	if reason != nil {
		a.err = reason
	}
	a.mu.Unlock()

	fields := []zap.Field{
		zap.String("attempt", a.ID),
		zap.String("order_id", a.OrderID),
		zap.String("milestone_id", a.MilestoneID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	}
	if reason != nil && reason.Kind != customerror.UserCancelled {
		logger.Log.Warn("settlement attempt ended", append(fields, zap.String("kind", string(reason.Kind)), zap.Error(reason))...)
		return nil
	}
	logger.Log.Info("settlement transition", fields...)
	return nil
}
