package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rentbeacon/internal/ingest"
	"github.com/sells-group/rentbeacon/pkg/geocode"
)

// fetchOptions holds the fetch flags. Zero Address and unset Lat/Lon mean
// the location is prompted for.
type fetchOptions struct {
	Address     string
	Lat         *float64
	Lon         *float64
	Radius      float64
	Status      string
	Fixture     bool
	FixtureFile string
}

func (o fetchOptions) interactive() bool {
	return o.Address == "" && o.Lat == nil && o.Lon == nil
}

func (o fetchOptions) useFixture() bool {
	return o.Fixture || o.FixtureFile != ""
}

// userError is a message for the person at the terminal. The command prints
// it and exits cleanly.
type userError string

func (e userError) Error() string { return string(e) }

const (
	msgInvalidChoice  = userError("Invalid choice. Please try again.")
	msgCoordsNotNum   = userError("Latitude and longitude must be numbers.")
	msgRadiusNotNum   = userError("Radius must be a number.")
	msgInvalidCoords  = userError("Invalid coordinates. Please try again.")
	msgInvalidAddress = userError("Invalid address. Please try again.")
	msgInvalidRadius  = userError("Radius must be greater than zero.")
)

const msgNoListings = "No listings found or error occurred."

var fetchOpts fetchOptions

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch rentals near an address or point and upsert them",
	Long: `Prompts for an address or coordinates and a radius, fetches long-term rentals
from RentCast, and upserts them into the listings table. Pass --address or
--lat/--lon to skip the prompts, or --fixture to use a canned listing set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := fetchOpts
		if cmd.Flags().Changed("lat") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			opts.Lat = &lat
		}
		if cmd.Flags().Changed("lon") {
			lon, _ := cmd.Flags().GetFloat64("lon")
			opts.Lon = &lon
		}
		if opts.Status == "" {
			opts.Status = cfg.Fetch.Status
		}
		return runFetch(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchOpts.Address, "address", "", "free-text address to search around")
	fetchCmd.Flags().Float64("lat", 0, "latitude of the search center")
	fetchCmd.Flags().Float64("lon", 0, "longitude of the search center")
	fetchCmd.Flags().Float64Var(&fetchOpts.Radius, "radius", 0, "search radius in miles (default from fetch.default_radius)")
	fetchCmd.Flags().StringVar(&fetchOpts.Status, "status", "", "listing status filter (default Active)")
	fetchCmd.Flags().BoolVar(&fetchOpts.Fixture, "fixture", false, "use the built-in sample listings instead of the API")
	fetchCmd.Flags().StringVar(&fetchOpts.FixtureFile, "fixture-file", "", "use listings from a .yaml or .json file instead of the API")
	fetchCmd.MarkFlagsMutuallyExclusive("address", "lat")
	fetchCmd.MarkFlagsMutuallyExclusive("address", "lon")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(ctx context.Context, in io.Reader, out io.Writer, opts fetchOptions) error {
	var (
		src ingest.Source
		loc ingest.Location
		err error
	)

	if opts.useFixture() {
		src, err = fixtureSource(opts.FixtureFile)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Using fixed listing data; skipping location prompts.")
	} else {
		rc, rcErr := initRentCast()
		if rcErr != nil {
			return rcErr
		}
		loc, err = resolveFetchLocation(ctx, in, out, opts)
		var ue userError
		if errors.As(err, &ue) {
			fmt.Fprintln(out, ue.Error())
			return nil
		}
		if err != nil {
			return err
		}
		src = ingest.NewLiveSource(rc)
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	if !opts.useFixture() {
		fmt.Fprintln(out, fetchingLine(loc))
	}

	summary, err := ingest.NewPipeline(src, st).Run(ctx, loc.Query(opts.Status))
	if errors.Is(err, ingest.ErrNoListings) {
		fmt.Fprintln(out, msgNoListings)
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "fetch")
	}

	printSummary(out, summary)
	return nil
}

func fixtureSource(path string) (ingest.Source, error) {
	if path != "" {
		return ingest.LoadFixtureFile(path)
	}
	return ingest.DefaultFixtureSource()
}

// resolveFetchLocation gathers the location from flags or prompts and
// resolves it. Problems the user can fix come back as userError.
func resolveFetchLocation(ctx context.Context, in io.Reader, out io.Writer, opts fetchOptions) (ingest.Location, error) {
	var (
		input ingest.LocationInput
		err   error
	)
	if opts.interactive() {
		input, err = promptLocation(bufio.NewReader(in), out)
		if err != nil {
			return ingest.Location{}, err
		}
	} else {
		input = ingest.LocationInput{Address: opts.Address, Latitude: opts.Lat, Longitude: opts.Lon, Radius: opts.Radius}
		if input.Radius == 0 {
			input.Radius = cfg.Fetch.DefaultRadius
		}
	}

	var gc geocode.Client
	if input.Address != "" {
		gc, err = initGeocoder()
		if err != nil {
			return ingest.Location{}, err
		}
	}

	loc, err := ingest.ResolveLocation(ctx, gc, input)
	switch {
	case errors.Is(err, ingest.ErrAddressNotFound):
		return ingest.Location{}, msgInvalidAddress
	case errors.Is(err, ingest.ErrInvalidCoordinates), errors.Is(err, ingest.ErrLocationRequired):
		return ingest.Location{}, msgInvalidCoords
	case errors.Is(err, ingest.ErrInvalidRadius):
		return ingest.Location{}, msgInvalidRadius
	case err != nil:
		return ingest.Location{}, err
	}

	if loc.Address != "" {
		fmt.Fprintf(out, "Using address: %s\n", loc.Address)
		fmt.Fprintf(out, "Resolved to: (%.5f, %.5f)\n", loc.Latitude, loc.Longitude)
	} else {
		fmt.Fprintf(out, "Using coordinates: (%.5f, %.5f)\n", loc.Latitude, loc.Longitude)
	}
	return loc, nil
}

// promptLocation asks for an address or coordinates, then a radius. A blank
// radius uses fetch.default_radius.
func promptLocation(r *bufio.Reader, w io.Writer) (ingest.LocationInput, error) {
	var input ingest.LocationInput

	choice, err := prompt(r, w, "Enter 'a' to input an address OR 'c' for coordinates: ")
	if err != nil {
		return input, err
	}

	switch strings.ToLower(choice) {
	case "a":
		input.Address, err = prompt(r, w, "Enter an address (e.g., '5000 Forbes Ave, Pittsburgh PA'): ")
		if err != nil {
			return input, err
		}
		if input.Address == "" {
			return input, msgInvalidAddress
		}
	case "c":
		latStr, err := prompt(r, w, "Enter latitude: ")
		if err != nil {
			return input, err
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return input, msgCoordsNotNum
		}
		lonStr, err := prompt(r, w, "Enter longitude: ")
		if err != nil {
			return input, err
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return input, msgCoordsNotNum
		}
		if err := ingest.ValidateCoordinates(lat, lon); err != nil {
			return input, msgInvalidCoords
		}
		input.Latitude, input.Longitude = &lat, &lon
	default:
		return input, msgInvalidChoice
	}

	radiusStr, err := prompt(r, w, fmt.Sprintf("Proximity radius in miles (e.g., %g): ", defaultRadius()))
	if err != nil {
		return input, err
	}
	if radiusStr == "" {
		input.Radius = defaultRadius()
		return input, nil
	}
	input.Radius, err = strconv.ParseFloat(radiusStr, 64)
	if err != nil {
		return input, msgRadiusNotNum
	}
	return input, nil
}

// prompt writes label and reads one trimmed line. EOF after partial input
// returns that input.
func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", eris.New("fetch: input closed before a value was entered")
		}
		return "", eris.Wrap(err, "fetch: read input")
	}
	return strings.TrimSpace(line), nil
}

func defaultRadius() float64 {
	if cfg != nil && cfg.Fetch.DefaultRadius > 0 {
		return cfg.Fetch.DefaultRadius
	}
	return 5
}

func fetchingLine(loc ingest.Location) string {
	if loc.Address != "" {
		return fmt.Sprintf("\nFetching rentals within %.2f miles of '%s' at (%.5f, %.5f) ...\n",
			loc.Radius, loc.Address, loc.Latitude, loc.Longitude)
	}
	return fmt.Sprintf("\nFetching rentals within %g miles of (%.5f, %.5f) ...\n",
		loc.Radius, loc.Latitude, loc.Longitude)
}

func printSummary(w io.Writer, s ingest.Summary) {
	fmt.Fprintf(w, "Found %d raw listings.\n\n", s.Fetched)
	if s.Err != "" {
		fmt.Fprintf(w, "Error during upsert, nothing was saved: %s\n", s.Err)
		return
	}
	fmt.Fprintf(w, "Upsert complete. Inserted: %d, Updated: %d", s.Inserted, s.Updated)
	if s.Skipped > 0 {
		fmt.Fprintf(w, ", Skipped (no id): %d", s.Skipped)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run ID: %s\n", s.RunID)
}
