package repository

import (
	"context"
	"testing"

	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransaction() models.Transaction {
	return models.Transaction{
		ID:               "t1",
		OrderID:          "o1",
		MilestoneID:      "m2",
		Amount:           2000,
		PaymentMode:      models.OnlinePaymentMode,
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		GatewaySignature: "sig",
	}
}

func expectTransactionInsert(mock pgxmock.PgxPoolIface, txn models.Transaction) *pgxmock.ExpectedExec {
	return mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.OrderID, txn.MilestoneID, int64(txn.Amount), txn.PaymentMode,
			txn.GatewayOrderID, txn.GatewayPaymentID, txn.GatewaySignature)
}

func TestPaymentRepository_SaveGatewayOrder(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(NewTestDB(mock))
	gatewayOrder := models.GatewayOrder{GatewayOrderID: "order_gw1", OrderID: "o1", MilestoneID: "m2", Amount: 2000, Currency: "INR"}

	mock.ExpectExec("INSERT INTO gateway_orders").
		WithArgs("order_gw1", "o1", "m2", int64(2000), "INR").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// Act
	err = repo.SaveGatewayOrder(context.Background(), gatewayOrder)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_GetGatewayOrder_NotFound(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(NewTestDB(mock))

	mock.ExpectQuery("FROM gateway_orders WHERE gateway_order_id").
		WithArgs("order_unknown").
		WillReturnRows(pgxmock.NewRows([]string{"gateway_order_id", "order_id", "milestone_id", "amount", "currency", "created_at"}))

	// Act
	gatewayOrder, err := repo.GetGatewayOrder(context.Background(), "order_unknown")

	// Assert
	assert.Nil(t, gatewayOrder)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Settle(t *testing.T) {
	testCases := []struct {
		name       string
		amountPaid int64
		total      int64
		wantStatus models.OrderStatus
	}{
		{name: "partially paid", amountPaid: 3500, total: 5000, wantStatus: models.PartiallyPaidStatus},
		{name: "fully paid", amountPaid: 5000, total: 5000, wantStatus: models.PaidStatus},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			repo := NewPaymentRepository(NewTestDB(mock))
			txn := testTransaction()

			mock.ExpectBegin()
			expectTransactionInsert(mock, txn).WillReturnResult(pgxmock.NewResult("INSERT", 1))
			mock.ExpectExec("UPDATE milestones SET is_paid").
				WithArgs("m2", "o1").
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			mock.ExpectQuery("SELECT COALESCE").
				WithArgs("o1").
				WillReturnRows(pgxmock.NewRows([]string{"paid", "total"}).AddRow(tc.amountPaid, tc.total))
			mock.ExpectExec("UPDATE orders SET status").
				WithArgs(tc.wantStatus, "o1").
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			mock.ExpectCommit()

			// Act
			result, err := repo.Settle(context.Background(), txn)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, models.Amount(tc.amountPaid), result.AmountPaid)
			assert.Equal(t, tc.wantStatus, result.OrderStatus)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepository_Settle_MilestoneAlreadyPaid(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(NewTestDB(mock))
	txn := testTransaction()

	mock.ExpectBegin()
	expectTransactionInsert(mock, txn).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE milestones SET is_paid").
		WithArgs("m2", "o1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	// Act
	result, err := repo.Settle(context.Background(), txn)

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrMilestoneAlreadySettled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Settle_DuplicatePayment(t *testing.T) {
	// Arrange
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(NewTestDB(mock))
	txn := testTransaction()

	// Имитируем повторную запись того же платежа
	pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation, Message: "duplicate key value"}

	mock.ExpectBegin()
	expectTransactionInsert(mock, txn).WillReturnError(pgErr)
	mock.ExpectRollback()

	// Act
	result, err := repo.Settle(context.Background(), txn)

	// Assert
	assert.Nil(t, result)
	var uniqueErr *customerror.UniqueViolationError
	require.ErrorAs(t, err, &uniqueErr)
	assert.Equal(t, 409, uniqueErr.GetHTTPCode())
	assert.NoError(t, mock.ExpectationsWereMet())
}
