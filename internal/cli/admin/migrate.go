package admin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mindgrove-ai/studykit/internal/config"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  "Apply pending database migrations and exit. Requires STUDYKIT_DATABASE_URL.",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasDatabase() {
		return fmt.Errorf("no DATABASE_URL configured, nothing to migrate")
	}

	return runMigrations(cfg.DatabaseURL)
}
