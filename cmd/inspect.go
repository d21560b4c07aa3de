package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rentbeacon/internal/model"
	"github.com/sells-group/rentbeacon/internal/store"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List database tables and show the first listings rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if providerID, _ := cmd.Flags().GetString("provider-id"); providerID != "" {
			return runInspectListing(ctx, st, cmd.OutOrStdout(), providerID)
		}
		limit, _ := cmd.Flags().GetInt("limit")
		return runInspect(ctx, st, cmd.OutOrStdout(), limit)
	},
}

func init() {
	inspectCmd.Flags().Int("limit", 50, "max listings rows to show")
	inspectCmd.Flags().String("provider-id", "", "show every column of the listing with this provider id")
	inspectCmd.MarkFlagsMutuallyExclusive("limit", "provider-id")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(ctx context.Context, st store.Store, w io.Writer, limit int) error {
	tables, err := st.ListTables(ctx)
	if err != nil {
		return eris.Wrap(err, "inspect: list tables")
	}

	fmt.Fprintln(w, "Tables:")
	for _, name := range tables {
		fmt.Fprintln(w, "  -", name)
	}

	if !slices.Contains(tables, store.ListingsTable) {
		printMissingTable(w)
		return nil
	}

	listings, err := st.SampleListings(ctx, limit)
	if err != nil {
		return eris.Wrap(err, "inspect: sample listings")
	}
	total, err := st.CountListings(ctx)
	if err != nil {
		return eris.Wrap(err, "inspect: count listings")
	}

	fmt.Fprintf(w, "\n%s (first %d of %d rows):\n", store.ListingsTable, len(listings), total)
	formatListings(w, listings)
	return nil
}

// runInspectListing prints one stored listing as column/value pairs.
func runInspectListing(ctx context.Context, st store.Store, w io.Writer, providerID string) error {
	tables, err := st.ListTables(ctx)
	if err != nil {
		return eris.Wrap(err, "inspect: list tables")
	}
	if !slices.Contains(tables, store.ListingsTable) {
		printMissingTable(w)
		return nil
	}

	l, err := st.GetListing(ctx, providerID)
	if err != nil {
		return eris.Wrapf(err, "inspect: get listing %s", providerID)
	}
	if l == nil {
		fmt.Fprintf(w, "No listing with provider_id %q.\n", providerID)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%d\n", l.ID)
	fmt.Fprintf(tw, "provider_id\t%s\n", l.ProviderID)
	values := l.Values()
	for i, col := range model.Columns() {
		fmt.Fprintf(tw, "%s\t%s\n", col, cellString(values[i]))
	}
	return tw.Flush()
}

func printMissingTable(w io.Writer) {
	fmt.Fprintf(w, "\nTable %q does not exist in this database.\n", store.ListingsTable)
	fmt.Fprintln(w, "Run `rentbeacon init-db` or `rentbeacon fetch` to create it first.")
}

// formatListings prints one tab-aligned row per listing. NULL marks absent
// values.
func formatListings(w io.Writer, listings []model.Listing) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := append([]string{"id", "provider_id"}, model.Columns()...)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))

	for _, l := range listings {
		cells := []string{strconv.FormatInt(l.ID, 10), l.ProviderID}
		for _, v := range l.Values() {
			cells = append(cells, cellString(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *string:
		if x == nil {
			return "NULL"
		}
		return *x
	case *int:
		if x == nil {
			return "NULL"
		}
		return strconv.Itoa(*x)
	case *float64:
		if x == nil {
			return "NULL"
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
