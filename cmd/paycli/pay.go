package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bessima/bookbind-pay/internal/checkout"
	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/Bessima/bookbind-pay/internal/policy"
	"github.com/Bessima/bookbind-pay/internal/settlement"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay [order] [milestone]",
		Short: "Pay the next milestone of an order through the gateway checkout",
		Long: `Opens the gateway checkout in the browser for one milestone.
Without a milestone the earliest unpaid milestone is paid.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(runPay)(args)
		},
	}
}

func runPay(ctx context.Context, a *app, args []string) error {
	book, err := loadLedger(ctx, a)
	if err != nil {
		return err
	}

	orderID := args[0]
	milestoneID, err := pickMilestone(book.Order, orderID, args[1:])
	if err != nil {
		return err
	}

	assets := &checkout.AssetCache{}
	loader := checkout.NewLoader(checkout.NewHTTPScriptInjector(a.conf.CheckoutScriptURL, assets))
	hosted := checkout.NewHosted(a.conf.CheckoutAddress, assets, openBrowser)
	go func() {
		if err := hosted.Start(); err != nil {
			logger.Log.Error("checkout server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hosted.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("checkout server shutdown", zap.Error(err))
		}
	}()

	orchestrator := settlement.NewOrchestrator(a.client, a.identity, book, loader, hosted,
		settlement.WithVerifyTimeout(a.conf.VerifyTimeout),
		settlement.WithObservers(settlement.Observers{
			OnSettled: func(attempt *settlement.Attempt, order models.Order) {
				fmt.Printf("Payment received. Paid %s of %s.\n", order.AmountPaid(), order.TotalAmount)
			},
			OnFailed: func(attempt *settlement.Attempt, err *customerror.SettlementError) {
				fmt.Println(customerror.UserMessage(err.Kind))
				if err.Kind == customerror.VerificationTimeout && attempt.GatewayOrderID() != "" {
					fmt.Printf("Payment reference: %s, amount %s\n", attempt.GatewayOrderID(), attempt.Amount())
				}
			},
			OnCancelled: func(attempt *settlement.Attempt) {
				fmt.Println(customerror.UserMessage(customerror.UserCancelled))
			},
		}),
	)

	attempt, err := orchestrator.Initiate(ctx, orderID, milestoneID)
	if err != nil {
		return explain(err)
	}
	fmt.Printf("Opening checkout for milestone %s...\n", milestoneID)

	select {
	case <-attempt.Done():
	case <-ctx.Done():
		// verification keeps running after an interrupt, so wait for the attempt itself
		if active, ok := orchestrator.Active(orderID); ok && active.State() == settlement.Verifying {
			fmt.Println("Confirming the payment with the server, please wait...")
		}
		<-attempt.Done()
	}
	if attempt.State() != settlement.Settled {
		return errors.New("milestone was not paid")
	}
	return nil
}

func pickMilestone(lookup func(string) (models.Order, bool), orderID string, rest []string) (string, error) {
	if len(rest) > 0 {
		return rest[0], nil
	}

	order, ok := lookup(orderID)
	if !ok {
		return "", explain(customerror.NewSettlementError(customerror.PolicyViolation, customerror.ErrUnknownOrder))
	}
	milestone, ok := policy.PayableMilestone(order.Milestones)
	if !ok {
		return "", fmt.Errorf("order %s has nothing left to pay", orderID)
	}
	return milestone.ID, nil
}
