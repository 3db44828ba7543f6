package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := a.client().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list transactions: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tSTATUS\tAMOUNT\tNET\tTIME\tMESSAGE")
			for _, tx := range txs {
				net := "-"
				if tx.NetAmount != nil {
					net = formatCents(*tx.NetAmount)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.OrderNSU,
					tx.Status,
					formatCents(tx.Amount),
					net,
					tx.Timestamp.Local().Format("2006-01-02 15:04:05"),
					tx.Message,
				)
			}
			return w.Flush()
		},
	}
}
