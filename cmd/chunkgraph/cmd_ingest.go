package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nvandessel/chunkgraph/internal/ingest"
	"github.com/nvandessel/chunkgraph/internal/report"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file|-]",
		Short: "Merge relation lines into the graph",
		Long: `Read relation lines from a file, or from stdin when the argument is "-"
or omitted, and merge them into the graph.

Each line names a chunk, a colon, then pairs of related chunk and weight:

  Introduction: Background, 2, Methods, 5

Every relation is stored in both directions. Processing stops at the first
malformed line; lines before it stay written.

Examples:
  chunkgraph ingest relations.txt
  cat relations.txt | chunkgraph ingest
  chunkgraph ingest relations.txt --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			if dryRun {
				return checkRelations(cmd, text)
			}

			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				res, err := env.service.Ingest(ctx, text)
				if err != nil {
					return fmt.Errorf("ingest stopped after %d edges: %w", res.EdgesWritten, err)
				}
				return env.emit(cmd, res, func(p *report.Printer) error {
					p.Ingest(res)
					return nil
				})
			})
		},
	}

	cmd.Flags().Bool("dry-run", false, "Parse and validate the input without writing")
	return cmd
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(data), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Reading relation lines from stdin (Ctrl-D to finish)...")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// checkRelations parses text and reports what an ingest would write.
func checkRelations(cmd *cobra.Command, text string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	lines, err := ingest.Parse(text)
	if err != nil {
		return err
	}
	relations := 0
	for _, l := range lines {
		relations += len(l.Relations)
	}

	if jsonOut {
		return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
			"valid":     true,
			"lines":     len(lines),
			"relations": relations,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d lines, %d relations; nothing written (dry run)\n", len(lines), relations)
	return nil
}
