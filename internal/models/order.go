package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

type OrderStatus string

const (
	WaitingPaymentStatus OrderStatus = "WAITING_PAYMENT"
	PartiallyPaidStatus  OrderStatus = "PARTIALLY_PAID"
	PaidStatus           OrderStatus = "PAID"
	CompletedStatus      OrderStatus = "COMPLETED"
	CancelledStatus      OrderStatus = "CANCELLED"
)

type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	TotalAmount Amount      `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	Milestones  []Milestone `json:"milestones"`
}

type Milestone struct {
	ID        string     `json:"id"`
	OrderID   string     `json:"order_id"`
	Label     string     `json:"name"`
	Position  int        `json:"position"`
	AmountDue Amount     `json:"amount_due"`
	IsPaid    bool       `json:"is_paid"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// AmountPaid is always derived from the paid milestones.
func (order Order) AmountPaid() Amount {
	var paid Amount
	for _, milestone := range order.Milestones {
		if milestone.IsPaid {
			paid += milestone.AmountDue
		}
	}
	return paid
}

func (order Order) FullyPaid() bool {
	for _, milestone := range order.Milestones {
		if !milestone.IsPaid {
			return false
		}
	}
	return true
}

// SettledStatus is the status an order takes after a milestone settles.
func (order Order) SettledStatus() OrderStatus {
	if order.FullyPaid() {
		return PaidStatus
	}
	if order.AmountPaid() > 0 {
		return PartiallyPaidStatus
	}
	return WaitingPaymentStatus
}

// SortMilestones orders milestones by their sequence position.
func (order *Order) SortMilestones() {
	sort.SliceStable(order.Milestones, func(i, j int) bool {
		return order.Milestones[i].Position < order.Milestones[j].Position
	})
}

func (order Order) Milestone(id string) (Milestone, bool) {
	for _, milestone := range order.Milestones {
		if milestone.ID == id {
			return milestone, true
		}
	}
	return Milestone{}, false
}

func (order Order) Clone() Order {
	clone := order
	clone.Milestones = make([]Milestone, len(order.Milestones))
	copy(clone.Milestones, order.Milestones)
	for i := range clone.Milestones {
		if due := order.Milestones[i].DueDate; due != nil {
			d := *due
			clone.Milestones[i].DueDate = &d
		}
	}
	return clone
}

func (order Order) Validate() error {
	if order.ID == "" {
		return errors.New("order without id")
	}

	var sum Amount
	positions := make(map[int]struct{}, len(order.Milestones))
	ids := make(map[string]struct{}, len(order.Milestones))
	for _, milestone := range order.Milestones {
		if milestone.AmountDue <= 0 {
			return fmt.Errorf("order %s: milestone %s has non-positive amount %s", order.ID, milestone.ID, milestone.AmountDue)
		}
		if _, ok := positions[milestone.Position]; ok {
			return fmt.Errorf("order %s: duplicate milestone position %d", order.ID, milestone.Position)
		}
		if _, ok := ids[milestone.ID]; ok {
			return fmt.Errorf("order %s: duplicate milestone id %s", order.ID, milestone.ID)
		}
		positions[milestone.Position] = struct{}{}
		ids[milestone.ID] = struct{}{}
		sum += milestone.AmountDue
	}

	if len(order.Milestones) > 0 && sum != order.TotalAmount {
		return fmt.Errorf("order %s: milestones sum to %s, total is %s", order.ID, sum, order.TotalAmount)
	}
	if order.AmountPaid() > order.TotalAmount {
		return fmt.Errorf("order %s: amount paid exceeds total", order.ID)
	}
	return nil
}

type orderJSON struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	TotalAmount Amount      `json:"total_amount"`
	AmountPaid  Amount      `json:"amount_paid"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	Milestones  []Milestone `json:"milestones"`
}

// MarshalJSON adds the derived amount_paid to the wire form.
func (order Order) MarshalJSON() ([]byte, error) {
	milestones := order.Milestones
	if milestones == nil {
		milestones = []Milestone{}
	}
	return json.Marshal(orderJSON{
		ID:          order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		AmountPaid:  order.AmountPaid(),
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
		Milestones:  milestones,
	})
}
