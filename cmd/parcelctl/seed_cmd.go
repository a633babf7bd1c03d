package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/swiftparcel/parceld/modules/parcels/infrastructure/persistence"
	"github.com/swiftparcel/parceld/pkg/composables"
	"github.com/swiftparcel/parceld/pkg/configuration"
)

var defaultParcelTypes = []string{"clothes", "electronics", "others"}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default parcel types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := configuration.Use()
			logger := conf.Logger()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			pool, err := pgxpool.New(ctx, conf.Database.Opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx = composables.WithPool(ctx, pool)
			repo := persistence.NewParcelTypeRepository()
			for _, name := range defaultParcelTypes {
				t, err := repo.Create(ctx, name)
				if err != nil {
					return err
				}
				logger.Infof("parcel type %q (id=%d)", t.Name, t.ID)
			}
			return nil
		},
	}
}
