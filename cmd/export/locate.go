package main

import (
	"fmt"

	"github.com/ignite/constituent-service/internal/storage"
	"github.com/spf13/cobra"
)

func newLocateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "locate --year YYYY [--month MM]",
		Short: "Print the store key for a period and whether it exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, period, err := opts.load()
			if err != nil {
				return err
			}

			store, err := storage.New(cmd.Context(), cfg.Export)
			if err != nil {
				return err
			}
			key := period.Key(cfg.Export.KeyPrefix)
			ok, err := store.Exists(cmd.Context(), key)
			if err != nil {
				return err
			}

			status := "missing"
			if ok {
				status = "present"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, status)
			return nil
		},
	}
}
