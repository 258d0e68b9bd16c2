package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvandessel/chunkgraph/internal/report"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every chunk and relation",
		Long: `Remove all nodes and edges from the configured store. This cannot be
undone; take a backup first if the graph is worth keeping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to reset without --yes")
			}
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				if err := env.service.Reset(ctx); err != nil {
					return err
				}
				return env.emit(cmd, map[string]string{"status": "reset"}, func(p *report.Printer) error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "✓ Graph cleared")
					return err
				})
			})
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm deleting the whole graph")
	return cmd
}
