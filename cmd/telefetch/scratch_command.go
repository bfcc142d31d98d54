package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"telefetch/internal/api"
)

func newScratchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scratch",
		Short: "Show the daemon's scratch area",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(cctx context.Context, client *api.Client) error {
				resp, err := client.Scratch(cctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(resp.Dirs) == 0 {
					fmt.Fprintln(out, "Scratch area is empty")
				} else {
					rows := make([]table.Row, 0, len(resp.Dirs))
					for _, dir := range resp.Dirs {
						rows = append(rows, table.Row{
							dir.Name,
							humanize.IBytes(uint64(dir.Size)),
							dir.Modified,
						})
					}
					fmt.Fprintln(out, renderTable(
						table.Row{"DIRECTORY", "SIZE", "MODIFIED"},
						rows,
						2,
					))
					fmt.Fprintf(out, "Total: %s in %d directories\n",
						humanize.IBytes(uint64(resp.TotalBytes)), len(resp.Dirs))
				}
				if resp.DiskTotal > 0 {
					fmt.Fprintf(out, "Disk: %s free of %s\n",
						humanize.IBytes(resp.DiskFree), humanize.IBytes(resp.DiskTotal))
				}
				return nil
			})
		},
	}
}
