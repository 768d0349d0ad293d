package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and content status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				runningKind := statusWarn
				if status.Running {
					runningKind = statusOK
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, yesNo(status.Running), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Version", statusInfo, status.Version, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Run log", statusInfo, status.RunLogPath, colorize))
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Content", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Workspace", statusInfo, status.WorkspaceDir, colorize))
				if status.Head != "" {
					fmt.Fprintln(stdout, renderStatusLine("Head", statusInfo, shortHead(status.Head), colorize))
				}
				teams := "none"
				if len(status.Teams) > 0 {
					teams = strings.Join(status.Teams, ", ")
				}
				fmt.Fprintln(stdout, renderStatusLine("Teams", statusInfo, teams, colorize))

				apiKind := statusWarn
				if status.ContentOK {
					apiKind = statusOK
				}
				apiDetail := status.ContentMessage
				if status.ContentLastRun != "" {
					apiDetail = fmt.Sprintf("%s (last run %s)", apiDetail, status.ContentLastRun)
				}
				fmt.Fprintln(stdout, renderStatusLine("Recommendation", apiKind, apiDetail, colorize))

				if status.LastRun != nil {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Last Run", colorize) {
						fmt.Fprintln(stdout, line)
					}
					run := status.LastRun
					kind := statusWarn
					if run.Outcome == "ok" || run.Outcome == "no_update_needed" {
						kind = statusOK
					}
					fmt.Fprintln(stdout, renderStatusLine("Outcome", kind, run.Outcome, colorize))
					fmt.Fprintln(stdout, renderStatusLine("Trigger", statusInfo, run.Trigger, colorize))
					fmt.Fprintln(stdout, renderStatusLine("Finished", statusInfo, run.FinishedAt, colorize))
					if run.Message != "" {
						fmt.Fprintln(stdout, renderStatusLine("Message", statusInfo, run.Message, colorize))
					}
					if run.TeamsUpdated > 0 {
						fmt.Fprintln(stdout, renderStatusLine("Teams updated", statusOK, fmt.Sprintf("%d", run.TeamsUpdated), colorize))
					}
				}
				return nil
			})
		},
	}
}
