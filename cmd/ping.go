package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database connection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Ping(ctx); err != nil {
			return eris.Wrap(err, "ping")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "OK, DB connection works.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
