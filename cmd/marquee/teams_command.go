package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/logging"
	"marquee/internal/workspace"
)

func newTeamsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List teams in the content workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store := workspace.NewStore(cfg.Paths.WorkspaceDir,
				cfg.Recommendation.HistoryDays, cfg.Recommendation.HistoryMax, logging.NewNop())
			teams, err := store.Teams()
			if err != nil {
				return fmt.Errorf("list teams: %w", err)
			}

			stdout := cmd.OutOrStdout()
			if len(teams) == 0 {
				fmt.Fprintln(stdout, "No teams found; has the content repository been cloned?")
				return nil
			}

			rows := make([][]string, 0, len(teams))
			for _, team := range teams {
				doc, err := store.ReadSection(team, cfg.Recommendation.SectionID)
				current := "no content"
				if err != nil {
					current = "unreadable"
				} else if doc != nil {
					if doc.Restaurant != nil {
						current = doc.Restaurant.Name
					} else {
						current = "no recommendation"
					}
					if doc.RestaurantLastUpdated != "" {
						current = fmt.Sprintf("%s (%s)", current, doc.RestaurantLastUpdated)
					}
				}
				rows = append(rows, []string{team, current})
			}

			table := renderTable([]string{"Team", "Recommendation"}, rows, []columnAlignment{alignLeft, alignLeft})
			fmt.Fprintln(stdout, table)
			return nil
		},
	}
}
