package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nvandessel/chunkgraph/internal/config"
	"github.com/nvandessel/chunkgraph/internal/report"
	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize chunkgraph in the project root",
		Long: `Create .chunkgraph/ with a default config.yaml and a .gitignore for the
graph database. An existing config.yaml is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			backend, _ := cmd.Flags().GetString("store")

			dir, err := store.EnsureDir(root)
			if err != nil {
				return err
			}
			if err := store.EnsureGitignore(dir); err != nil {
				return err
			}

			cfgPath := config.Path(dir)
			created := false
			if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
				cfg := config.Default()
				if backend != "" {
					cfg.Store.Backend = backend
				}
				if err := config.Write(cfgPath, cfg); err != nil {
					return err
				}
				created = true
			}

			if jsonOut {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]any{
					"status":         "initialized",
					"path":           dir,
					"config":         cfgPath,
					"config_created": created,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s/ in %s\n", store.DirName, root)
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "  kept existing %s\n", cfgPath)
			}
			return nil
		},
	}
}
