package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired rows from the response cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.DeleteExpiredResponses(cmd.Context())
		if err != nil {
			return err
		}
		zap.L().Info("cache sweep complete", zap.Int("deleted", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
