package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"telefetch/internal/api"
)

func newUsageCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show per-user delivery totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be a positive number, got %d", days)
			}
			return ctx.withClient(cmd, func(cctx context.Context, client *api.Client) error {
				resp, err := client.Usage(cctx, days)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(resp.Rows) == 0 {
					fmt.Fprintf(out, "No deliveries since %s\n", resp.Since)
					return nil
				}

				rows := make([]table.Row, 0, len(resp.Rows))
				for _, row := range resp.Rows {
					rows = append(rows, table.Row{
						row.Day,
						row.UserID,
						row.Downloads,
						humanize.IBytes(uint64(row.Bytes)),
					})
				}
				fmt.Fprintln(out, renderTable(
					table.Row{"DAY", "USER", "DOWNLOADS", "BYTES"},
					rows,
					3, 4,
				))
				fmt.Fprintf(out, "Since %s: %d downloads, %s\n",
					resp.Since, resp.TotalDownloads, humanize.IBytes(uint64(resp.TotalBytes)))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "How many days back to report")
	return cmd
}
