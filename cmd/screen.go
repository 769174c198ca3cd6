package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var screenBatchSize int

var screenCmd = &cobra.Command{
	Use:   "screen SYMBOL...",
	Short: "Screen peers for one or more tickers and persist the results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		batchSize := screenBatchSize
		if batchSize == 0 {
			batchSize = cfg.Screener.BatchSize
		}

		result := env.Batch.Process(cmd.Context(), args, batchSize)
		zap.L().Info("screen run complete",
			zap.Int("processed", result.Processed),
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Errors)),
		)
		for sym, msg := range result.Errors {
			zap.L().Warn("screen failed", zap.String("symbol", sym), zap.String("error", msg))
		}
		return nil
	},
}

func init() {
	screenCmd.Flags().IntVar(&screenBatchSize, "batch-size", 0, "symbols per chunk (default from config)")
	rootCmd.AddCommand(screenCmd)
}
