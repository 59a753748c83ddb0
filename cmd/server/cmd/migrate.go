package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storefront-banners/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and print their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if strings.HasPrefix(cfg.Database.URL, "memory://") {
			return fmt.Errorf("migrate needs a sqlite:// or postgres:// database, got %s", cfg.DSNRedacted())
		}

		ctx := context.Background()
		db, err := storage.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		statusOnly, _ := cmd.Flags().GetBool("status")
		if !statusOnly {
			if err := storage.Migrate(ctx, db.DB); err != nil {
				return err
			}
		}

		status, err := storage.MigrateStatus(ctx, db.DB)
		if err != nil {
			return err
		}
		for _, s := range status {
			state := "pending"
			if s.Applied {
				state = "applied " + s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(os.Stdout, "%-24s %s  %s\n", s.ID, s.Checksum[:12], state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("status", false, "only print migration status")
}
