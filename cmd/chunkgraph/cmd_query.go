package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nvandessel/chunkgraph/internal/report"
	"github.com/spf13/cobra"
)

func newRelatedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "related <chunk>",
		Short: "List chunks related to a chunk within a hop limit",
		Long: `Expand breadth-first from a chunk and list every chunk reached within
--depth hops. Each chunk is reported with the weight of the edge it was first
discovered through, not the cost of the whole path; use 'paths' for that.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				depth := env.cfg.Query.MaxDepth
				if cmd.Flags().Changed("depth") {
					depth, _ = cmd.Flags().GetInt("depth")
				}
				chunks, err := env.service.RelatedChunks(ctx, args[0], depth)
				if err != nil {
					return err
				}
				rows := report.Chunks(chunks)
				return env.emit(cmd, rows, func(p *report.Printer) error {
					return p.Chunks(args[0], rows)
				})
			})
		},
	}
	cmd.Flags().Int("depth", 0, "Maximum hops to expand (default: query.max_depth from config)")
	return cmd
}

func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths <chunk>",
		Short: "Shortest weighted distance from a chunk to every chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				dist, err := env.service.ShortestPaths(ctx, args[0])
				if err != nil {
					return err
				}
				rows := report.Distances(dist)
				return env.emit(cmd, rows, func(p *report.Printer) error {
					return p.Distances(fmt.Sprintf("Distances from %q", args[0]), rows)
				})
			})
		},
	}
}

func newNearestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nearest <chunk>",
		Short: "The reachable chunks closest to a chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				limit := env.cfg.Query.NearestLimit
				if cmd.Flags().Changed("limit") {
					limit, _ = cmd.Flags().GetInt("limit")
				}
				near, err := env.service.NearestNodes(ctx, args[0], limit)
				if err != nil {
					return err
				}
				rows := report.Ranked(near)
				return env.emit(cmd, rows, func(p *report.Printer) error {
					return p.Distances(fmt.Sprintf("Nearest to %q", args[0]), rows)
				})
			})
		},
	}
	cmd.Flags().IntP("limit", "n", 0, "Maximum chunks to list (default: query.nearest_limit from config)")
	return cmd
}

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <chunk>...",
		Short: "Connectivity and average distance metrics per chunk",
		Long: `For each chunk, report how many chunks it is directly joined to and the
average shortest distance to its nearest 5, 10 and 20 reachable chunks.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				ms, err := env.service.NodeMetrics(ctx, args)
				if err != nil {
					return err
				}
				rows := report.Metrics(ms)
				return env.emit(cmd, rows, func(p *report.Printer) error {
					return p.Metrics(rows)
				})
			})
		},
	}
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <chunk,chunk,...>",
		Short: "Compare a fixed number of chunks side by side",
		Long: `Compare exactly query.compare_count chunks (5 by default). Chunks may be
given comma-separated or as separate arguments.

Example:
  chunkgraph compare "Intro,Methods,Results,Discussion,Appendix"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			centers := splitCenters(args)
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				c, err := env.service.Compare(ctx, centers)
				if err != nil {
					return err
				}
				view := report.Comparison(c)
				return env.emit(cmd, view, func(p *report.Printer) error {
					return p.Comparison(view)
				})
			})
		},
	}
}

// splitCenters accepts both "a,b,c" and separate arguments.
func splitCenters(args []string) []string {
	var out []string
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count, mean and median of all edge weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				stats, err := env.service.EdgeStatistics(ctx)
				if err != nil {
					return err
				}
				view := report.Stats(stats)
				return env.emit(cmd, view, func(p *report.Printer) error {
					return p.Stats(view)
				})
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find chunk names or edges containing a keyword",
		Long: `List the chunk names that contain a keyword, ignoring case. With --edges,
list every relation whose source or target contains it instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edges, _ := cmd.Flags().GetBool("edges")
			return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
				if edges {
					found, err := env.service.SearchEdges(ctx, args[0])
					if err != nil {
						return err
					}
					rows := report.Edges(found)
					return env.emit(cmd, map[string]any{"keyword": args[0], "edges": rows}, func(p *report.Printer) error {
						return p.Edges(fmt.Sprintf("Edges matching %q", args[0]), rows)
					})
				}

				names, err := env.service.Search(ctx, args[0])
				if err != nil {
					return err
				}
				if names == nil {
					names = []string{}
				}
				return env.emit(cmd, map[string]any{"keyword": args[0], "matches": names}, func(p *report.Printer) error {
					p.Names(fmt.Sprintf("Chunks matching %q", args[0]), names)
					return nil
				})
			})
		},
	}
	cmd.Flags().Bool("edges", false, "Return matching edges instead of chunk names")
	return cmd
}
