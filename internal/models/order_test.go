package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() Order {
	return Order{
		ID:          "o1",
		UserID:      "u1",
		TotalAmount: 5000,
		Status:      PartiallyPaidStatus,
		Milestones: []Milestone{
			{ID: "m3", OrderID: "o1", Label: "30% Before Dispatch", Position: 3, AmountDue: 1500},
			{ID: "m1", OrderID: "o1", Label: "30% Advance Payment", Position: 1, AmountDue: 1500, IsPaid: true},
			{ID: "m2", OrderID: "o1", Label: "40% Before Printing", Position: 2, AmountDue: 2000},
		},
	}
}

func TestOrder_AmountPaidIsDerived(t *testing.T) {
	order := sampleOrder()
	assert.Equal(t, Amount(1500), order.AmountPaid())

	order.Milestones[2].IsPaid = true
	assert.Equal(t, Amount(3500), order.AmountPaid())
	assert.False(t, order.FullyPaid())
	assert.Equal(t, PartiallyPaidStatus, order.SettledStatus())
}

func TestOrder_SortMilestones(t *testing.T) {
	order := sampleOrder()
	order.SortMilestones()

	ids := []string{}
	for _, m := range order.Milestones {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)
}

func TestOrder_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(o *Order)
		wantErr bool
	}{
		{name: "valid", mutate: func(o *Order) {}},
		{name: "sum mismatch", mutate: func(o *Order) { o.TotalAmount = 4000 }, wantErr: true},
		{name: "zero amount", mutate: func(o *Order) { o.Milestones[0].AmountDue = 0; o.TotalAmount = 3500 }, wantErr: true},
		{name: "duplicate position", mutate: func(o *Order) { o.Milestones[0].Position = 1 }, wantErr: true},
		{name: "missing id", mutate: func(o *Order) { o.ID = "" }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			order := sampleOrder()
			tc.mutate(&order)
			err := order.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrder_CloneIsIndependent(t *testing.T) {
	order := sampleOrder()
	clone := order.Clone()
	clone.Milestones[0].IsPaid = true

	assert.False(t, order.Milestones[0].IsPaid)
}

func TestOrder_MarshalJSONIncludesAmountPaid(t *testing.T) {
	body, err := json.Marshal(sampleOrder())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, float64(1500), decoded["amount_paid"])

	var back Order
	require.NoError(t, json.Unmarshal(body, &back))
	assert.Len(t, back.Milestones, 3)
	assert.Equal(t, Amount(1500), back.AmountPaid())
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "35.00", Amount(3500).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "19.99", Amount(1999).Decimal().String())
}

func TestUser_Password(t *testing.T) {
	user := User{Username: "reader"}
	require.NoError(t, user.HashPassword("secret-pass"))

	assert.True(t, user.CheckPassword("secret-pass"))
	assert.False(t, user.CheckPassword("wrong"))
}
