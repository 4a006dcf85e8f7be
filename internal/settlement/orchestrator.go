package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Bessima/bookbind-pay/internal/checkout"
	"github.com/Bessima/bookbind-pay/internal/clients/backend"
	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/ledger"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/Bessima/bookbind-pay/internal/policy"
	"go.uber.org/zap"
)

const DefaultVerifyTimeout = 30 * time.Second

type Backend interface {
	CreateOrder(ctx context.Context, orderID, milestoneID string) (*backend.GatewayOrder, error)
	Verify(ctx context.Context, request backend.VerifyRequest) (*backend.VerifyResponse, error)
}

type Identity interface {
	Token() (string, error)
	User() *models.User
}

type Ledger interface {
	Order(orderID string) (models.Order, bool)
	ApplySettlement(orderID, milestoneID string, newAmountPaid models.Amount) (bool, error)
}

type Loader interface {
	EnsureLoaded(ctx context.Context) error
}

// Observers are notified once per attempt, after the attempt has released its order.
type Observers struct {
	OnSettled   func(attempt *Attempt, order models.Order)
	OnFailed    func(attempt *Attempt, err *customerror.SettlementError)
	OnCancelled func(attempt *Attempt)
}

type Option func(o *Orchestrator)

func WithVerifyTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.verifyTimeout = timeout
	}
}

func WithObservers(observers Observers) Option {
	return func(o *Orchestrator) {
		o.observers = observers
	}
}

type Orchestrator struct {
	backend       Backend
	identity      Identity
	ledger        Ledger
	loader        Loader
	gateway       checkout.Gateway
	observers     Observers
	verifyTimeout time.Duration

	mu       sync.Mutex
	inFlight map[string]*Attempt
}

func NewOrchestrator(backend Backend, identity Identity, ledger Ledger, loader Loader, gateway checkout.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:       backend,
		identity:      identity,
		ledger:        ledger,
		loader:        loader,
		gateway:       gateway,
		verifyTimeout: DefaultVerifyTimeout,
		inFlight:      map[string]*Attempt{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Active returns the in-flight attempt for an order, if any.
func (o *Orchestrator) Active(orderID string) (*Attempt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	attempt, ok := o.inFlight[orderID]
	return attempt, ok
}

// Initiate starts a settlement attempt for a PAYABLE milestone. Authentication
// and policy are checked synchronously, before any network call; every later
// failure is reported through the attempt and the observers.
func (o *Orchestrator) Initiate(ctx context.Context, orderID, milestoneID string) (*Attempt, error) {
	if _, err := o.identity.Token(); err != nil {
		return nil, customerror.NewSettlementError(customerror.Unauthenticated, err)
	}

	order, ok := o.ledger.Order(orderID)
	if !ok {
		return nil, customerror.NewSettlementError(customerror.PolicyViolation, customerror.ErrUnknownOrder)
	}
	if err := policy.CheckPayable(order.Milestones, milestoneID); err != nil {
		return nil, customerror.NewSettlementError(customerror.PolicyViolation, err)
	}

	o.mu.Lock()
	if active, ok := o.inFlight[orderID]; ok {
		o.mu.Unlock()
		return nil, customerror.NewSettlementError(customerror.PolicyViolation,
			fmt.Errorf("%w (attempt %s)", customerror.ErrAttemptInProgress, active.ID))
	}
	attempt := newAttempt(orderID, milestoneID)
	o.inFlight[orderID] = attempt
	o.mu.Unlock()

	if err := attempt.transition(Initiating, nil); err != nil {
		o.release(attempt)
		return nil, err
	}

	go o.run(ctx, attempt, order)
	return attempt, nil
}

func (o *Orchestrator) run(ctx context.Context, attempt *Attempt, order models.Order) {
	milestone, _ := order.Milestone(attempt.MilestoneID)

	if err := o.loader.EnsureLoaded(ctx); err != nil {
		o.fail(attempt, customerror.GatewayLoadFailed, err)
		return
	}

	gatewayOrder, err := o.backend.CreateOrder(ctx, attempt.OrderID, attempt.MilestoneID)
	if err != nil {
		o.fail(attempt, customerror.GatewayOrderCreationFailed, err)
		return
	}
	attempt.bindGatewayOrder(gatewayOrder.GatewayOrderID, gatewayOrder.Amount)
	if err := attempt.transition(AwaitingGateway, nil); err != nil {
		o.fail(attempt, customerror.GatewayOrderCreationFailed, err)
		return
	}

	params := checkout.Params{
		Key:            gatewayOrder.GatewayKeyID,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
		GatewayOrderID: gatewayOrder.GatewayOrderID,
		OrderID:        attempt.OrderID,
		MilestoneID:    attempt.MilestoneID,
		Description:    milestone.Label,
	}
	if user := o.identity.User(); user != nil {
		params.Email = user.Email
	}

	outcome, err := o.gateway.Open(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			o.cancel(attempt)
			return
		}
		o.fail(attempt, customerror.GatewayLoadFailed, err)
		return
	}

	switch outcome.Kind {
	case checkout.Dismissed:
		o.cancel(attempt)
		return
	case checkout.Declined:
		o.fail(attempt, customerror.GatewayDeclined, declineError(outcome.Decline))
		return
	case checkout.Paid:
	default:
		o.fail(attempt, customerror.GatewayDeclined, fmt.Errorf("unexpected checkout outcome %q", outcome.Kind))
		return
	}

	if err := attempt.transition(Verifying, nil); err != nil {
		o.fail(attempt, customerror.VerificationFailed, err)
		return
	}
	o.verify(ctx, attempt, outcome.Receipt)
}

func (o *Orchestrator) verify(ctx context.Context, attempt *Attempt, receipt *checkout.Receipt) {
	if receipt == nil {
		o.fail(attempt, customerror.VerificationFailed, errors.New("checkout reported payment without a receipt"))
		return
	}
	if receipt.GatewayOrderID != attempt.GatewayOrderID() {
		o.fail(attempt, customerror.VerificationFailed, fmt.Errorf("receipt is for gateway order %s, expected %s",
			receipt.GatewayOrderID, attempt.GatewayOrderID()))
		return
	}

	// Once sent, verification runs to a response or to its own deadline.
	verifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.verifyTimeout)
	defer cancel()

	answer, err := o.backend.Verify(verifyCtx, backend.VerifyRequest{
		OrderID:          attempt.OrderID,
		GatewayOrderID:   receipt.GatewayOrderID,
		GatewayPaymentID: receipt.PaymentID,
		GatewaySignature: receipt.Signature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			o.fail(attempt, customerror.VerificationTimeout, fmt.Errorf("payment %s: %w", receipt.PaymentID, err))
			return
		}
		o.fail(attempt, customerror.VerificationFailed, err)
		return
	}
	if answer.Status != backend.VerifiedStatus {
		o.fail(attempt, customerror.VerificationFailed, fmt.Errorf("backend answered with status %q", answer.Status))
		return
	}
	if answer.MilestoneID != "" && answer.MilestoneID != attempt.MilestoneID {
		o.fail(attempt, customerror.VerificationFailed, fmt.Errorf("backend settled milestone %s, expected %s",
			answer.MilestoneID, attempt.MilestoneID))
		return
	}

	if err := attempt.transition(Settled, nil); err != nil {
		o.fail(attempt, customerror.VerificationFailed, err)
		return
	}

	applied, err := o.ledger.ApplySettlement(attempt.OrderID, attempt.MilestoneID, answer.AmountPaid)
	switch {
	case errors.Is(err, ledger.ErrLedgerDrift):
		logger.Log.Warn("ledger drift after settlement", zap.String("attempt", attempt.ID), zap.Error(err))
	case err != nil:
		logger.Log.Warn("failed to apply settlement to ledger", zap.String("attempt", attempt.ID), zap.Error(err))
	case !applied:
		logger.Log.Info("settlement already applied", zap.String("attempt", attempt.ID))
	}

	order, _ := o.ledger.Order(attempt.OrderID)
	o.release(attempt)
	if o.observers.OnSettled != nil {
		o.observers.OnSettled(attempt, order)
	}
	close(attempt.done)
}

func (o *Orchestrator) fail(attempt *Attempt, kind customerror.Kind, err error) {
	reason := customerror.NewSettlementError(kind, err)
	if transitionErr := attempt.transition(Failed, reason); transitionErr != nil {
		logger.Log.Error("attempt could not be failed", zap.String("attempt", attempt.ID), zap.Error(transitionErr))
	}

	o.release(attempt)
	if o.observers.OnFailed != nil {
		o.observers.OnFailed(attempt, reason)
	}
	close(attempt.done)
}

func (o *Orchestrator) cancel(attempt *Attempt) {
	reason := customerror.NewSettlementError(customerror.UserCancelled, nil)
	if err := attempt.transition(Cancelled, reason); err != nil {
		logger.Log.Error("attempt could not be cancelled", zap.String("attempt", attempt.ID), zap.Error(err))
	}

	o.release(attempt)
	if o.observers.OnCancelled != nil {
		o.observers.OnCancelled(attempt)
	}
	close(attempt.done)
}

func (o *Orchestrator) release(attempt *Attempt) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[attempt.OrderID] == attempt {
		delete(o.inFlight, attempt.OrderID)
	}
}

func declineError(decline *checkout.Decline) error {
	if decline == nil {
		return errors.New("payment declined by gateway")
	}
	return fmt.Errorf("payment declined by gateway: %s (%s)", decline.Description, decline.Code)
}
