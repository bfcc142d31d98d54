package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"telefetch/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var showFinished bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Show active and waiting downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(cctx context.Context, client *api.Client) error {
				resp, err := client.Jobs(cctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(resp.Active) == 0 && len(resp.Waiting) == 0 {
					fmt.Fprintln(out, "Queue is idle")
				}

				if len(resp.Active) > 0 {
					fmt.Fprintln(out, "Active:")
					fmt.Fprintln(out, renderTable(
						table.Row{"ID", "USER", "STATUS", "ITEM", "TITLE"},
						activeRows(resp.Active),
					))
				}

				if len(resp.Waiting) > 0 {
					fmt.Fprintln(out, "Waiting:")
					fmt.Fprintln(out, renderTable(
						table.Row{"POS", "ID", "USER", "QUALITY", "URL"},
						waitingRows(resp.Waiting),
						1,
					))
				}

				if showFinished {
					if len(resp.Finished) == 0 {
						fmt.Fprintln(out, "No finished jobs retained")
					} else {
						fmt.Fprintln(out, "Finished:")
						fmt.Fprintln(out, renderTable(
							table.Row{"ID", "USER", "STATUS", "SENT", "DETAIL"},
							finishedRows(resp.Finished),
							4,
						))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showFinished, "finished", false, "Include recently finished jobs")
	return cmd
}

func activeRows(jobs []api.JobView) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, job := range jobs {
		item := ""
		if job.BatchSize > 0 {
			item = fmt.Sprintf("%d/%d", job.ItemIndex, job.BatchSize)
		}
		rows = append(rows, table.Row{
			shortID(job.ID),
			job.UserID,
			titleLabel(job.Status),
			item,
			jobTitle(job),
		})
	}
	return rows
}

func waitingRows(jobs []api.JobView) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, table.Row{
			job.QueuePosition,
			shortID(job.ID),
			job.UserID,
			job.Requested,
			truncate(job.URL, 48),
		})
	}
	return rows
}

func finishedRows(jobs []api.JobView) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, job := range jobs {
		detail := job.ErrorMessage
		if detail == "" {
			detail = job.CancelReason
		}
		rows = append(rows, table.Row{
			shortID(job.ID),
			job.UserID,
			titleLabel(job.Status),
			job.Delivered,
			truncate(detail, 48),
		})
	}
	return rows
}

func jobTitle(job api.JobView) string {
	if title := strings.TrimSpace(job.Title); title != "" {
		return truncate(title, 48)
	}
	return truncate(job.URL, 48)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
