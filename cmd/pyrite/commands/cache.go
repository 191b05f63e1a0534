package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pyrite/internal/buildcache"
)

var cachePath string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the build artifact cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := buildcache.Open(cachePath)
		if err != nil {
			return err
		}
		defer cache.Close()
		n, err := cache.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d cached artifact(s)\n", cachePath, n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := Logger()
		defer logger.Sync()
		cache, err := buildcache.Open(cachePath)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Clear(); err != nil {
			return err
		}
		logger.Info("cleared build cache", zap.String("path", cachePath))
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cachePath, "path", ".pyrite-cache.db", "cache database path")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
