package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the listings table and indexes if missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "init-db")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Database initialized.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
