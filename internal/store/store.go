package store

import (
	"context"

	"github.com/sells-group/rentbeacon/internal/db"
	"github.com/sells-group/rentbeacon/internal/model"
)

// ListingsTable is the table holding canonical listings.
const ListingsTable = "listings"

// UpsertResult counts the outcome of one UpsertListings call. Skipped counts
// records without a provider id; they are neither inserted nor updated.
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Store defines the persistence interface for listings.
type Store interface {
	// Listings
	UpsertListings(ctx context.Context, listings []model.Listing) (UpsertResult, error)
	GetListing(ctx context.Context, providerID string) (*model.Listing, error)
	CountListings(ctx context.Context) (int, error)
	SampleListings(ctx context.Context, limit int) ([]model.Listing, error)

	// Inspection
	ListTables(ctx context.Context) ([]string, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// upsertEach applies write to every listing with a provider id, in order, and
// tallies the outcomes. The first error aborts the loop with zero counts so the
// caller can roll back.
func upsertEach(listings []model.Listing, write func(model.Listing) (db.UpsertOutcome, error)) (UpsertResult, error) {
	var res UpsertResult
	for _, l := range listings {
		if l.ProviderID == "" {
			res.Skipped++
			continue
		}
		outcome, err := write(l)
		if err != nil {
			return UpsertResult{}, err
		}
		switch outcome {
		case db.Inserted:
			res.Inserted++
		case db.Updated:
			res.Updated++
		}
	}
	return res, nil
}

// selectListingColumns is the column list for full-row reads, matching
// model.Listing.ScanTargets.
func selectListingColumns() []string {
	return append([]string{"id", "provider_id"}, model.Columns()...)
}
