package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/Bessima/bookbind-pay/internal/policy"
)

// ErrLedgerDrift reports that the backend's amount paid disagrees with the
// cached milestones. The settlement itself is applied; the caller should reload.
var ErrLedgerDrift = errors.New("ledger differs from backend, reload required")

// Ledger is the client-side cache of orders and milestones. The backend is the
// source of truth: Load replaces everything, ApplySettlement patches one
// verified milestone.
type Ledger struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	ids    []string
}

func New() *Ledger {
	return &Ledger{orders: map[string]*models.Order{}}
}

func (l *Ledger) Load(orders []models.Order) error {
	loaded := make(map[string]*models.Order, len(orders))
	ids := make([]string, 0, len(orders))

	for _, order := range orders {
		if err := order.Validate(); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		if _, ok := loaded[order.ID]; ok {
			return fmt.Errorf("load ledger: duplicate order %s", order.ID)
		}
		clone := order.Clone()
		clone.SortMilestones()
		loaded[order.ID] = &clone
		ids = append(ids, order.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = loaded
	l.ids = ids
	return nil
}

func (l *Ledger) Order(orderID string) (models.Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	order, ok := l.orders[orderID]
	if !ok {
		return models.Order{}, false
	}
	return order.Clone(), true
}

func (l *Ledger) Orders() []models.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.Order, 0, len(l.ids))
	for _, id := range l.ids {
		result = append(result, l.orders[id].Clone())
	}
	return result
}

func (l *Ledger) Standings(orderID string) ([]policy.MilestoneStanding, error) {
	order, ok := l.Order(orderID)
	if !ok {
		return nil, customerror.ErrUnknownOrder
	}
	return policy.Evaluate(order.Milestones), nil
}

// ApplySettlement marks a verified milestone as paid. Applying the same
// settlement again is a no-op and returns applied=false.
func (l *Ledger) ApplySettlement(orderID, milestoneID string, newAmountPaid models.Amount) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.orders[orderID]
	if !ok {
		return false, customerror.ErrUnknownOrder
	}

	index := -1
	for i := range order.Milestones {
		if order.Milestones[i].ID == milestoneID {
			index = i
			break
		}
	}
	if index == -1 {
		return false, customerror.ErrUnknownMilestone
	}
	if order.Milestones[index].IsPaid {
		return false, nil
	}

	order.Milestones[index].IsPaid = true
	order.Status = order.SettledStatus()

	if derived := order.AmountPaid(); derived != newAmountPaid {
		return true, fmt.Errorf("%w: order %s derived %s, backend reported %s",
			ErrLedgerDrift, orderID, derived, newAmountPaid)
	}
	return true, nil
}
