package repository

import (
	"context"
	"time"

	"github.com/Bessima/bookbind-pay/internal/config/db"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/Bessima/bookbind-pay/internal/retry"
	"github.com/jackc/pgx/v5"
)

type OrderRepository struct {
	db *db.DB
}

type OrderStorageRepositoryI interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetListByUserID(ctx context.Context, userID string) ([]models.Order, error)
}

func NewOrderRepository(dbObj *db.DB) *OrderRepository {
	return &OrderRepository{db: dbObj}
}

const milestoneColumns = `m.id, m.order_id, m.name, m.position, m.amount_due, m.is_paid, m.due_date`

func (repository *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	queryOrder := `SELECT id, user_id, total_amount, status, created_at FROM orders WHERE id = $1`
	queryMilestones := `SELECT ` + milestoneColumns + ` FROM milestones m WHERE m.order_id = $1 ORDER BY m.position`

	return retry.DoRetryWithResult(ctx, func() (*models.Order, error) {
		order := models.Order{}
		err := repository.db.Pool.QueryRow(ctx, queryOrder, id).
			Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt)
		if err != nil {
			return nil, notFound(err)
		}

		rows, err := repository.db.Pool.Query(ctx, queryMilestones, id)
		if err != nil {
			return nil, err
		}
		milestones, err := scanMilestones(rows)
		if err != nil {
			return nil, err
		}
		order.Milestones = milestones
		return &order, nil
	})
}

func (repository *OrderRepository) GetListByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	queryOrders := `SELECT id, user_id, total_amount, status, created_at FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	queryMilestones := `SELECT ` + milestoneColumns + ` FROM milestones m JOIN orders o ON o.id = m.order_id
		WHERE o.user_id = $1 ORDER BY m.order_id, m.position`

	return retry.DoRetryWithResult(ctx, func() ([]models.Order, error) {
		rows, err := repository.db.Pool.Query(ctx, queryOrders, userID)
		if err != nil {
			return nil, err
		}

		orders := []models.Order{}
		index := map[string]int{}
		for rows.Next() {
			var order models.Order
			err = rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt)
			if err != nil {
				rows.Close()
				return nil, err
			}
			index[order.ID] = len(orders)
			orders = append(orders, order)
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return nil, err
		}

		milestoneRows, err := repository.db.Pool.Query(ctx, queryMilestones, userID)
		if err != nil {
			return nil, err
		}
		milestones, err := scanMilestones(milestoneRows)
		if err != nil {
			return nil, err
		}
		for _, milestone := range milestones {
			if i, ok := index[milestone.OrderID]; ok {
				orders[i].Milestones = append(orders[i].Milestones, milestone)
			}
		}

		return orders, nil
	})
}

func scanMilestones(rows pgx.Rows) ([]models.Milestone, error) {
	defer rows.Close()

	milestones := []models.Milestone{}
	for rows.Next() {
		var milestone models.Milestone
		var dueDate *time.Time
		err := rows.Scan(&milestone.ID, &milestone.OrderID, &milestone.Label, &milestone.Position,
			&milestone.AmountDue, &milestone.IsPaid, &dueDate)
		if err != nil {
			return nil, err
		}
		milestone.DueDate = dueDate
		milestones = append(milestones, milestone)
	}
	return milestones, rows.Err()
}
