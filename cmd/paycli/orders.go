package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Bessima/bookbind-pay/internal/ledger"
	"github.com/spf13/cobra"
)

func ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders with the standing of every milestone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, args []string) error {
				book, err := loadLedger(ctx, a)
				if err != nil {
					return err
				}
				return printOrders(os.Stdout, book)
			})(args)
		},
	}
}

func loadLedger(ctx context.Context, a *app) (*ledger.Ledger, error) {
	if _, err := a.identity.Refresh(ctx, a.client); err != nil {
		return nil, explain(err)
	}

	orders, err := a.client.ListOrders(ctx)
	if err != nil {
		return nil, explain(err)
	}

	book := ledger.New()
	if err := book.Load(orders); err != nil {
		return nil, err
	}
	return book, nil
}

func printOrders(out io.Writer, book *ledger.Ledger) error {
	orders := book.Orders()
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, order := range orders {
		fmt.Fprintf(w, "Order %s\t%s\tpaid %s of %s\n",
			order.ID, order.Status, order.AmountPaid(), order.TotalAmount)

		standings, err := book.Standings(order.ID)
		if err != nil {
			return err
		}
		for _, standing := range standings {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				standing.Milestone.ID, standing.Milestone.Label, standing.Milestone.AmountDue, standing.Standing)
		}
	}
	return w.Flush()
}
