package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/ipc"
)

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Run the daily restaurant recommendation now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Recommend(force)
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				switch resp.Outcome {
				case "ok":
					fmt.Fprintf(stdout, "Updated %d team(s)\n", resp.TeamsUpdated)
				case "no_update_needed":
					fmt.Fprintln(stdout, "All teams already current")
				default:
					fmt.Fprintf(stdout, "No update: %s (%s)\n", resp.Message, resp.Outcome)
				}

				for _, result := range resp.Results {
					if result.Updated {
						fmt.Fprintf(stdout, "  %s: %s - %s\n", result.Team, result.Name, result.Tagline)
					} else {
						fmt.Fprintf(stdout, "  %s: skipped (%s)\n", result.Team, result.Reason)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Refresh every team even if already current today")
	return cmd
}
