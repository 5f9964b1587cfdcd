package cmd

import (
	"fmt"

	"apartment-booking/internal/data/gormstore"
	"apartment-booking/pkg/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(config)
			defer logger.Sync()

			ctx := cmd.Context()

			switch config.Database.Driver {
			case driverPostgres:
				db, err := database.InitDB(ctx, config.Database)
				if err != nil {
					return fmt.Errorf("connect database: %w", err)
				}
				defer db.Close()

				if err := database.Migrate(ctx, db); err != nil {
					return err
				}

			case driverSQLite:
				db, err := database.OpenSQLite(config.Database.SQLitePath, config.App.Debug)
				if err != nil {
					return err
				}
				if err := gormstore.Migrate(db); err != nil {
					return err
				}
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}

			default:
				return fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
			}

			logger.Info("Schema is up to date", zap.String("driver", config.Database.Driver))
			return nil
		},
	}
}
