package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/readbridge-edu/readbridge-progress/config"
	"github.com/readbridge-edu/readbridge-progress/internal/infrastructure/persistence/postgres"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), *configPath, down)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the last applied migration")
	return cmd
}

func runMigrate(ctx context.Context, configPath string, down bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Database.Configured() {
		return fmt.Errorf("no database configured")
	}

	log := logger.New(logger.Options{Level: logger.ParseLevel(cfg.Logging.Level)})

	conn, err := connectPostgres(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)

	if down {
		if err := migrator.Rollback(ctx); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		log.Info("rolled back last migration")
		return nil
	}

	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		return err
	}
	for _, s := range status {
		log.Info("migration",
			logger.Int("version", s.Version),
			logger.String("name", s.Name),
			logger.Bool("applied", s.IsApplied),
		)
	}
	return nil
}
