package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/confirmation"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/apiclient"
)

func payCmd(a *app) *cobra.Command {
	var (
		req     apiclient.PaymentRequest
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Submit a simulated card payment and wait for its confirmation",
		Long: `Submit a simulated card payment, then poll its status until the
checkout provider approves or declines it or the deadline passes.

Examples:
  ipsim pay --amount 1550 --type CREDIT_SPOT
  ipsim pay --amount 12000 --type CREDIT_INSTALLMENT --installments 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := a.client()

			tx, err := client.Submit(ctx, req)
			if err != nil {
				return fmt.Errorf("submit payment: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Payment %s created for %s\n", tx.OrderNSU, formatCents(tx.Amount))
			if tx.CheckoutURL != "" {
				fmt.Fprintf(out, "Checkout: %s\n", tx.CheckoutURL)
			}

			if tx.Status.Terminal() {
				outcome := settledOutcome(tx)
				fmt.Fprintf(out, "Payment %s: %s\n", outcome, tx.Message)
				return outcomeErr(outcome)
			}
			if noWatch {
				return nil
			}

			return outcomeErr(a.watch(ctx, client, confirmation.Reference(tx.OrderNSU), out))
		},
	}

	cmd.Flags().Int64Var(&req.Amount, "amount", 0, "amount in cents")
	cmd.Flags().StringVar(&req.Type, "type", "DEBIT", "DEBIT, CREDIT_SPOT or CREDIT_INSTALLMENT")
	cmd.Flags().IntVar(&req.Installments, "installments", 1, "number of installments")
	cmd.Flags().StringVar(&req.CardNumber, "card-number", "4000123456789010", "card number")
	cmd.Flags().StringVar(&req.CardHolder, "card-holder", "SIMULATED USER", "card holder name")
	cmd.Flags().StringVar(&req.CardExpiry, "card-expiry", "12/30", "card expiry (MM/YY)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "return after submitting")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// settledOutcome maps a transaction that was already terminal when the
// submission answered.
func settledOutcome(tx transaction.Transaction) confirmation.Outcome {
	if tx.Status == transaction.StatusDenied {
		return confirmation.OutcomeDeclined
	}
	return confirmation.OutcomeApproved
}
