// Package ingest runs the fetch, normalize and upsert flow for rental
// listings around a point.
package ingest

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rentbeacon/pkg/rentcast"
)

// Query describes one radius search.
type Query struct {
	Latitude  float64
	Longitude float64
	Radius    float64 // miles
	Status    string
}

// Source returns raw listings for a query. Implementations never fail: an
// upstream problem yields an empty slice, the same as a search with no hits.
type Source interface {
	Fetch(ctx context.Context, q Query) []rentcast.Listing
}

// LiveSource queries the RentCast API.
type LiveSource struct {
	client rentcast.Client
}

// NewLiveSource wraps a RentCast client as a Source.
func NewLiveSource(client rentcast.Client) *LiveSource {
	return &LiveSource{client: client}
}

// Fetch calls the API and degrades any error to an empty result.
func (s *LiveSource) Fetch(ctx context.Context, q Query) []rentcast.Listing {
	status := q.Status
	if status == "" {
		status = rentcast.DefaultStatus
	}

	listings, err := s.client.SearchRentals(ctx, rentcast.SearchParams{
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		Radius:    q.Radius,
		Status:    status,
	})
	if err != nil {
		zap.L().Warn("ingest: listings fetch failed, treating as no results",
			zap.Float64("latitude", q.Latitude),
			zap.Float64("longitude", q.Longitude),
			zap.Float64("radius", q.Radius),
			zap.Error(err),
		)
		return nil
	}
	return listings
}

//go:embed fixtures/listings.yaml
var defaultFixture []byte

// FixtureSource serves a canned listing set and ignores the query.
type FixtureSource struct {
	listings []rentcast.Listing
}

// NewFixtureSource returns a Source over the given listings.
func NewFixtureSource(listings []rentcast.Listing) *FixtureSource {
	return &FixtureSource{listings: listings}
}

// DefaultFixtureSource returns the built-in sample listings.
func DefaultFixtureSource() (*FixtureSource, error) {
	listings, err := decodeFixture(defaultFixture, ".yaml")
	if err != nil {
		return nil, eris.Wrap(err, "ingest: decode built-in fixture")
	}
	return NewFixtureSource(listings), nil
}

// LoadFixtureFile reads a listing set from a .yaml, .yml or .json file. The
// file holds an array of listings in the API's camelCase shape.
func LoadFixtureFile(path string) (*FixtureSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read fixture %s", path)
	}
	listings, err := decodeFixture(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: decode fixture %s", path)
	}
	return NewFixtureSource(listings), nil
}

// Fetch returns a copy of the canned listings.
func (s *FixtureSource) Fetch(_ context.Context, _ Query) []rentcast.Listing {
	out := make([]rentcast.Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

func decodeFixture(data []byte, ext string) ([]rentcast.Listing, error) {
	var listings []rentcast.Listing
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &listings); err != nil {
			return nil, eris.Wrap(err, "unmarshal json")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &listings); err != nil {
			return nil, eris.Wrap(err, "unmarshal yaml")
		}
	default:
		return nil, eris.Errorf("unsupported fixture extension %q", ext)
	}
	return listings, nil
}
