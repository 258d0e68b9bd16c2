package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chunkgraph",
		Short: "Weighted relation graph over document chunks",
		Long: `chunkgraph stores weighted relations between named document chunks and
answers questions about them: what is related to a chunk, how far apart two
chunks are, and how well connected a chunk is.

Relations are ingested as lines of the form

  chunk: related chunk, weight, other chunk, weight

and every relation is stored in both directions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().String("config", "", "Config file (default <root>/.chunkgraph/config.yaml)")
	rootCmd.PersistentFlags().String("store", "", "Store backend override: memory, sqlite or badger")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Deadline for the whole command (0 disables)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newIngestCmd(),
		newRelatedCmd(),
		newPathsCmd(),
		newNearestCmd(),
		newMetricsCmd(),
		newCompareCmd(),
		newStatsCmd(),
		newSearchCmd(),
		newRenameCmd(),
		newResetCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chunkgraph version %s\n", version)
			return nil
		},
	}
}
