package main

import (
	"context"

	"github.com/nvandessel/chunkgraph/internal/report"
	"github.com/spf13/cobra"
)

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <from> <to>",
		Short: "Replace text in every chunk name",
		Long: `Replace every occurrence of <from> with <to> in chunk names and in both
ends of every relation. Chunks that end up with the same name merge; when two
relations collapse onto the same pair, the one listed later keeps its weight.
Surrounding spaces in <from> and <to> are significant.

Examples:
  chunkgraph rename "Chapter " "Ch. "
  chunkgraph rename " (draft)" ""`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				res, err := env.service.Rename(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return env.emit(cmd, res, func(p *report.Printer) error {
					p.Rename(args[0], args[1], res)
					return nil
				})
			})
		},
	}
}
