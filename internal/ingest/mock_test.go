package ingest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/rentbeacon/pkg/geocode"
	"github.com/sells-group/rentbeacon/pkg/rentcast"
)

// --- RentCast Mock ---

type mockRentCastClient struct {
	mock.Mock
}

func (m *mockRentCastClient) SearchRentals(ctx context.Context, params rentcast.SearchParams) ([]rentcast.Listing, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rentcast.Listing), args.Error(1)
}

// --- Geocoder Mock ---

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Result), args.Error(1)
}
