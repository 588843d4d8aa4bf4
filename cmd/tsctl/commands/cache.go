package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and evict cached API responses",
	}
	cmd.AddCommand(c.newCacheClearCmd(), c.newCacheSweepCmd())
	return cmd
}

func (c *CLI) newCacheClearCmd() *cobra.Command {
	var route string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response, or only those under --route",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, closeFn, err := c.deps.OpenCache(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer closeFn()

			var n int
			if route != "" {
				n, err = cache.ForgetRoute(cmd.Context(), route)
			} else {
				n, err = cache.Flush(cmd.Context())
			}
			if err != nil {
				return err
			}
			cmd.Printf("cleared %d cached responses\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&route, "route", "", "only clear entries whose path contains this value")
	return cmd
}

func (c *CLI) newCacheSweepCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove cached responses older than the configured max age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, closeFn, err := c.deps.OpenCache(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer closeFn()

			maxAge := cache.Config().MaxAge
			if days > 0 {
				maxAge = time.Duration(days) * 24 * time.Hour
			}
			swept, pruned, err := respcache.NewSweeper(cache, maxAge, c.logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("swept %d, pruned %d index entries\n", swept, pruned)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "override the max age in days")
	return cmd
}
