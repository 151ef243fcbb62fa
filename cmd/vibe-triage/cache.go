package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-triage/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the significance cache",
	}

	cmd.AddCommand(newCacheShowCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheShowCmd() *cobra.Command {
	var countOnly bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached identifiers and labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			path := viper.GetString("cache.path")
			store, db, err := openStore(path, logger)
			if err != nil {
				return err
			}
			// Read only: the store is closed without a flush.
			defer store.Close()

			out := cmd.OutOrStdout()
			if countOnly && db != nil {
				n, err := db.SignificanceCount()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "# %s entries in %s\n", humanize.Comma(n), path)
				return nil
			}

			c := cache.Open(store, logger.Named("cache"))
			if !countOnly {
				entries := c.Entries()
				ids := make([]string, 0, len(entries))
				for id := range entries {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					fmt.Fprintf(out, "%s\t%s\n", id, entries[id])
				}
			}
			fmt.Fprintf(out, "# %s entries in %s\n", humanize.Comma(int64(c.Len())), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&countOnly, "count", false, "Only print the number of entries")

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			path := viper.GetString("cache.path")
			if err := clearCache(path, logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", path)
			return nil
		},
	}
}

func clearCache(path string, logger *zap.Logger) error {
	_, db, err := openStore(path, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := db.ClearSignificance(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		return nil
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}
