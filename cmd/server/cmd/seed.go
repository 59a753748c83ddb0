package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"storefront-banners/internal/banner"
	"storefront-banners/internal/engine"
	"storefront-banners/internal/seed"
	"storefront-banners/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create banners from a YAML fixture file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return fmt.Errorf("--file required")
		}
		f, err := seed.LoadFile(path)
		if err != nil {
			return err
		}

		ctx := context.Background()
		store, err := storage.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		admin := engine.NewAdminService(store, banner.NewValidator(), cfg.Banners.DefaultPage)
		created, err := seed.Apply(ctx, admin, f)
		for _, b := range created {
			log.Info().Str("id", b.ID).Str("name", b.Name).Msg("banner created")
		}
		if err != nil {
			return err
		}
		log.Info().Int("count", len(created)).Msg("seed complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("file", "", "YAML fixture file")
}
