package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"telefetch/internal/api"
	"telefetch/internal/preflight"
	"telefetch/internal/scratch"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue, and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			p := newStatusPrinter(cmd.OutOrStdout())

			address := ctx.apiAddress()
			client := api.NewClient(address)
			resp, daemonErr := client.Status(cmd.Context())

			p.section("Daemon")
			if daemonErr != nil {
				p.line("Daemon", statusWarn, fmt.Sprintf("Not reachable at %s (start it with `telefetchd`)", address))
			} else {
				p.line("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID))
				webhookKind := statusWarn
				webhookText := "Not registered (chat intake is offline)"
				if resp.WebhookSet {
					webhookKind = statusOK
					webhookText = "Registered"
				}
				p.line("Webhook", webhookKind, webhookText)
				p.line("Lock file", statusInfo, resp.LockPath)
			}
			p.blank()

			if daemonErr == nil {
				p.section("Stages")
				for _, st := range resp.Stages {
					if st.Ready {
						p.line(titleLabel(st.Name), statusOK, st.Detail)
					} else {
						p.line(titleLabel(st.Name), statusError, st.Detail)
					}
				}
				p.blank()

				p.section("Queue")
				renderQueueCounts(p, resp.Queue)
				p.blank()

				p.section("Database")
				renderDatabase(p, resp.Database)
				p.blank()
			}

			p.section("Dependencies")
			dependencies := resp.Dependencies
			if daemonErr != nil && cfg != nil {
				dependencies = api.FromDependencies(preflight.CheckSystemDeps(cfg))
			}
			for _, dep := range dependencies {
				switch {
				case dep.Available:
					p.line(dep.Name, statusOK, dep.Detail)
				case dep.Optional:
					p.line(dep.Name, statusWarn, dep.Detail)
				default:
					p.line(dep.Name, statusError, fmt.Sprintf("%s (%s)", dep.Detail, dep.Description))
				}
			}
			p.blank()

			p.section("Paths")
			if cfg == nil {
				p.line("Config", statusWarn, "not loaded")
				return nil
			}
			renderDirectory(p, "Scratch directory", cfg.Paths.ScratchDir)
			renderDirectory(p, "Log directory", cfg.Paths.LogDir)
			if total, free, err := scratch.FreeSpace(cfg.Paths.ScratchDir); err == nil {
				kind := statusOK
				if free < total/10 {
					kind = statusWarn
				}
				p.line("Scratch disk", kind, fmt.Sprintf("%s free of %s", humanize.IBytes(free), humanize.IBytes(total)))
			}
			return nil
		},
	}
}

func renderQueueCounts(p *statusPrinter, counts map[string]int) {
	if len(counts) == 0 {
		p.line("Queue", statusOK, "Idle")
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		p.line(titleLabel(key), statusInfo, fmt.Sprintf("%d", counts[key]))
	}
}

func renderDatabase(p *statusPrinter, db api.DatabaseHealth) {
	switch {
	case db.Error != "":
		p.line("Database", statusError, db.Error)
	case !db.Exists:
		p.line("Database", statusError, fmt.Sprintf("%s (does not exist)", db.Path))
	case !db.Readable:
		p.line("Database", statusError, fmt.Sprintf("%s (not readable)", db.Path))
	case len(db.MissingTables) > 0:
		p.line("Database", statusError, fmt.Sprintf("missing tables: %s", strings.Join(db.MissingTables, ", ")))
	case !db.IntegrityCheck:
		p.line("Database", statusError, "integrity check failed")
	default:
		p.line("Database", statusOK, fmt.Sprintf("%s (%d preferences, %d usage rows)", db.Path, db.PreferenceRows, db.UsageRows))
	}
}

func renderDirectory(p *statusPrinter, label, path string) {
	result := preflight.CheckDirectoryAccess(label, path)
	if result.Passed {
		p.line(label, statusOK, result.Detail)
	} else {
		p.line(label, statusError, result.Detail)
	}
}

var statusTitleCaser = cases.Title(language.Und)

func titleLabel(value string) string {
	return statusTitleCaser.String(strings.ReplaceAll(strings.TrimSpace(value), "_", " "))
}
