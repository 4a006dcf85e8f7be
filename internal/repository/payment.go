package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bessima/bookbind-pay/internal/config/db"
	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/Bessima/bookbind-pay/internal/retry"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrMilestoneAlreadySettled = errors.New("milestone already settled")

type SettlementResult struct {
	AmountPaid  models.Amount
	OrderStatus models.OrderStatus
}

type PaymentRepository struct {
	db *db.DB
}

type PaymentStorageRepositoryI interface {
	SaveGatewayOrder(ctx context.Context, gatewayOrder models.GatewayOrder) error
	GetGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.GatewayOrder, error)
	Settle(ctx context.Context, transaction models.Transaction) (*SettlementResult, error)
}

func NewPaymentRepository(dbObj *db.DB) *PaymentRepository {
	return &PaymentRepository{db: dbObj}
}

func (repository *PaymentRepository) SaveGatewayOrder(ctx context.Context, gatewayOrder models.GatewayOrder) error {
	query := `INSERT INTO gateway_orders (gateway_order_id, order_id, milestone_id, amount, currency) VALUES ($1, $2, $3, $4, $5)`

	return retry.DoRetry(ctx, func() error {
		_, err := repository.db.Pool.Exec(ctx, query,
			gatewayOrder.GatewayOrderID,
			gatewayOrder.OrderID,
			gatewayOrder.MilestoneID,
			int64(gatewayOrder.Amount),
			gatewayOrder.Currency,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				errWithMessage := fmt.Sprintf("gateway order %v already exists", gatewayOrder.GatewayOrderID)
				return customerror.NewUniqueViolationError(errWithMessage)
			}
			return err
		}
		return nil
	})
}

func (repository *PaymentRepository) GetGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.GatewayOrder, error) {
	query := `SELECT gateway_order_id, order_id, milestone_id, amount, currency, created_at FROM gateway_orders WHERE gateway_order_id = $1`

	return retry.DoRetryWithResult(ctx, func() (*models.GatewayOrder, error) {
		elem := models.GatewayOrder{}
		err := repository.db.Pool.QueryRow(ctx, query, gatewayOrderID).
			Scan(&elem.GatewayOrderID, &elem.OrderID, &elem.MilestoneID, &elem.Amount, &elem.Currency, &elem.CreatedAt)
		if err != nil {
			return nil, notFound(err)
		}
		return &elem, nil
	})
}

// Settle records a verified payment and flips its milestone to paid in one
// transaction. The order's status is recomputed from its paid milestones.
func (repository *PaymentRepository) Settle(ctx context.Context, transaction models.Transaction) (*SettlementResult, error) {
	queryTransaction := `INSERT INTO transactions
		(id, order_id, milestone_id, amount, payment_mode, gateway_order_id, gateway_payment_id, gateway_signature)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	queryMilestone := `UPDATE milestones SET is_paid = TRUE WHERE id = $1 AND order_id = $2 AND is_paid = FALSE`
	queryTotals := `SELECT COALESCE(SUM(amount_due) FILTER (WHERE is_paid), 0), COALESCE(SUM(amount_due), 0)
		FROM milestones WHERE order_id = $1`
	queryOrder := `UPDATE orders SET status = $1 WHERE id = $2`

	return retry.DoRetryWithResult(ctx, func() (result *SettlementResult, err error) {
		tx, err := repository.db.Pool.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback(ctx)
			}
		}()

		_, err = tx.Exec(ctx, queryTransaction,
			transaction.ID,
			transaction.OrderID,
			transaction.MilestoneID,
			int64(transaction.Amount),
			transaction.PaymentMode,
			transaction.GatewayOrderID,
			transaction.GatewayPaymentID,
			transaction.GatewaySignature,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				err = customerror.NewUniqueViolationError(
					fmt.Sprintf("payment %v already recorded", transaction.GatewayPaymentID))
			}
			return nil, err
		}

		tag, err := tx.Exec(ctx, queryMilestone, transaction.MilestoneID, transaction.OrderID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			err = ErrMilestoneAlreadySettled
			return nil, err
		}

		var amountPaid, total int64
		if err = tx.QueryRow(ctx, queryTotals, transaction.OrderID).Scan(&amountPaid, &total); err != nil {
			return nil, err
		}

		status := models.PartiallyPaidStatus
		if amountPaid >= total {
			status = models.PaidStatus
		}
		if _, err = tx.Exec(ctx, queryOrder, status, transaction.OrderID); err != nil {
			return nil, err
		}

		if err = tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &SettlementResult{AmountPaid: models.Amount(amountPaid), OrderStatus: status}, nil
	})
}
