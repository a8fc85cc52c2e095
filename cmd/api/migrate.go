package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stowage/service/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := config.SetupLogger(cfg)

		_, closeDB, err := openRepository(context.Background(), cfg, logger)
		if err != nil {
			return err
		}
		closeDB()
		return nil
	},
}
