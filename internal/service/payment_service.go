package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bessima/bookbind-pay/internal/clients/razorpay"
	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/handlers/schemas"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/Bessima/bookbind-pay/internal/policy"
	"github.com/Bessima/bookbind-pay/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const VerifiedStatus = "success"

type PaymentService struct {
	OrderRepository   repository.OrderStorageRepositoryI
	PaymentRepository repository.PaymentStorageRepositoryI
	provider          razorpay.ProviderI
	currency          string
}

func NewPaymentService(orderRep repository.OrderStorageRepositoryI, paymentRep repository.PaymentStorageRepositoryI, provider razorpay.ProviderI, currency string) *PaymentService {
	return &PaymentService{
		OrderRepository:   orderRep,
		PaymentRepository: paymentRep,
		provider:          provider,
		currency:          currency,
	}
}

func (service *PaymentService) ownedOrder(ctx context.Context, user *models.User, orderID string) (*models.Order, error) {
	order, err := service.OrderRepository.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerror.NewNotFoundError("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID {
		return nil, customerror.NewForbiddenError("Not your order")
	}
	return order, nil
}

// CreateGatewayOrder opens a gateway order for the order's PAYABLE milestone.
// When milestoneID is given it must name that milestone.
func (service *PaymentService) CreateGatewayOrder(ctx context.Context, user *models.User, orderID, milestoneID string) (*schemas.PaymentOrderResponse, error) {
	order, err := service.ownedOrder(ctx, user, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.CancelledStatus || order.Status == models.CompletedStatus {
		return nil, customerror.NewConflictError(fmt.Sprintf("Order is already %s", order.Status))
	}
	payable, ok := policy.PayableMilestone(order.Milestones)
	if !ok {
		return nil, customerror.NewConflictError("Order is already fully paid")
	}
	if milestoneID != "" && milestoneID != payable.ID {
		switch err := policy.CheckPayable(order.Milestones, milestoneID); {
		case errors.Is(err, customerror.ErrUnknownMilestone):
			return nil, customerror.NewNotFoundError("Milestone not found")
		case errors.Is(err, customerror.ErrMilestonePaid):
			return nil, customerror.NewConflictError("Milestone is already paid")
		default:
			return nil, customerror.NewConflictError("Milestone is locked until earlier milestones are paid")
		}
	}

	providerOrder, err := service.provider.CreateOrder(ctx, payable.AmountDue, service.currency,
		fmt.Sprintf("order_%s_%s", order.ID, payable.ID),
		map[string]string{
			"internal_order_id": order.ID,
			"milestone_id":      payable.ID,
			"user_id":           user.ID,
		})
	if err != nil {
		return nil, customerror.NewGatewayError(fmt.Sprintf("Payment gateway error: %v", err))
	}

	gatewayOrder := models.GatewayOrder{
		GatewayOrderID: providerOrder.GatewayOrderID,
		OrderID:        order.ID,
		MilestoneID:    payable.ID,
		Amount:         providerOrder.Amount,
		Currency:       providerOrder.Currency,
	}
	if gatewayOrder.Currency == "" {
		gatewayOrder.Currency = service.currency
	}
	if err := service.PaymentRepository.SaveGatewayOrder(ctx, gatewayOrder); err != nil {
		return nil, err
	}

	logger.Log.Info("gateway order created",
		zap.String("order_id", order.ID),
		zap.String("milestone_id", payable.ID),
		zap.String("gateway_order_id", gatewayOrder.GatewayOrderID),
	)

	return &schemas.PaymentOrderResponse{
		GatewayOrderID: gatewayOrder.GatewayOrderID,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
		GatewayKeyID:   service.provider.KeyID(),
		OrderID:        order.ID,
		MilestoneID:    payable.ID,
	}, nil
}

// Verify checks the checkout signature and settles the milestone bound to the
// gateway order.
func (service *PaymentService) Verify(ctx context.Context, user *models.User, request schemas.VerifyPaymentRequest) (*schemas.VerifyPaymentResponse, error) {
	order, err := service.ownedOrder(ctx, user, request.OrderID)
	if err != nil {
		return nil, err
	}

	gatewayOrder, err := service.PaymentRepository.GetGatewayOrder(ctx, request.GatewayOrderID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && gatewayOrder.OrderID != order.ID) {
		return nil, customerror.NewBadRequestError("Unknown gateway order for this order")
	}
	if err != nil {
		return nil, err
	}

	if !service.provider.VerifyPayment(request.GatewayOrderID, request.GatewayPaymentID, request.GatewaySignature) {
		logger.Log.Warn("payment signature mismatch",
			zap.String("order_id", order.ID),
			zap.String("gateway_payment_id", request.GatewayPaymentID),
		)
		return nil, customerror.NewBadRequestError("Payment verification failed. Invalid signature.")
	}

	transaction := models.Transaction{
		ID:               uuid.NewString(),
		OrderID:          order.ID,
		MilestoneID:      gatewayOrder.MilestoneID,
		Amount:           gatewayOrder.Amount,
		PaymentMode:      models.OnlinePaymentMode,
		GatewayOrderID:   gatewayOrder.GatewayOrderID,
		GatewayPaymentID: request.GatewayPaymentID,
		GatewaySignature: request.GatewaySignature,
	}
	result, err := service.PaymentRepository.Settle(ctx, transaction)
	if errors.Is(err, repository.ErrMilestoneAlreadySettled) {
		return nil, customerror.NewConflictError("Milestone already settled")
	}
	if err != nil {
		return nil, err
	}

	logger.Log.Info("payment verified",
		zap.String("order_id", order.ID),
		zap.String("milestone_id", transaction.MilestoneID),
		zap.Stringer("amount_paid", result.AmountPaid),
	)

	return &schemas.VerifyPaymentResponse{
		Status:      VerifiedStatus,
		Message:     "Payment verified and recorded successfully",
		OrderID:     order.ID,
		MilestoneID: transaction.MilestoneID,
		AmountPaid:  result.AmountPaid,
		OrderStatus: result.OrderStatus,
	}, nil
}
