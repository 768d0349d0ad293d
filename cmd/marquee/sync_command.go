package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull the content repository now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Sync()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Changed {
					fmt.Fprintf(stdout, "Content updated (%s -> %s)\n", shortHead(resp.OldHead), shortHead(resp.NewHead))
				} else {
					fmt.Fprintln(stdout, "Already up to date")
				}
				return nil
			})
		},
	}
}

func shortHead(head string) string {
	if len(head) > 12 {
		return head[:12]
	}
	return head
}
