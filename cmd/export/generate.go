package main

import (
	"fmt"

	"github.com/ignite/constituent-service/internal/export"
	"github.com/ignite/constituent-service/internal/repository/sqlstore"
	"github.com/ignite/constituent-service/internal/storage"
	"github.com/spf13/cobra"
)

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate --year YYYY [--month MM]",
		Short: "Write the CSV for a period to the export store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, period, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, dialect, err := sqlstore.Open(ctx, sqlstore.OptionsFromConfig(cfg.Database))
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := storage.New(ctx, cfg.Export)
			if err != nil {
				return err
			}

			gen := export.NewGenerator(sqlstore.NewConstituentRepo(db, dialect), store, cfg.Export.KeyPrefix)
			res, err := gen.Generate(ctx, period)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", res.Rows, res.Key)
			return nil
		},
	}
}
