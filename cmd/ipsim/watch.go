package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/confirmation"
	"github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/apiclient"
)

var (
	errDeclined = errors.New("payment declined")
	errTimedOut = errors.New("payment not confirmed in time")
)

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <order-nsu>",
		Short: "Wait for a submitted payment to be approved or declined",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			outcome := a.watch(ctx, a.client(), confirmation.Reference(args[0]), cmd.OutOrStdout())
			return outcomeErr(outcome)
		},
	}
}

func (a *app) client() *apiclient.Client {
	return apiclient.New(a.cfg.Client.BaseURL, &http.Client{Timeout: a.cfg.Client.RequestTimeout})
}

// watch polls ref until it resolves or ctx ends. Cancelling ctx stops the
// poller without printing an outcome.
func (a *app) watch(ctx context.Context, oracle confirmation.StatusOracle, ref confirmation.Reference, out io.Writer) confirmation.Outcome {
	pres := newPresenter(out, a.cfg.Poller.Interval, a.cfg.Poller.Deadline)

	poller := &confirmation.Poller{
		Oracle:    oracle,
		Callbacks: pres.callbacks(),
		Logger:    a.logger,
		Interval:  a.cfg.Poller.Interval,
		Deadline:  a.cfg.Poller.Deadline,
	}

	poller.Start(ref)
	defer poller.Stop()

	select {
	case o := <-pres.done:
		return o
	case <-ctx.Done():
		return confirmation.OutcomeCancelled
	}
}

func outcomeErr(o confirmation.Outcome) error {
	switch o {
	case confirmation.OutcomeDeclined:
		return errDeclined
	case confirmation.OutcomeTimedOut:
		return errTimedOut
	}
	return nil
}
