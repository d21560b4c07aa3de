package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentbeacon/pkg/geocode"
)

var (
	// ErrAddressNotFound means the geocoder had no match for the address.
	ErrAddressNotFound = eris.New("ingest: address not found")

	// ErrInvalidCoordinates means latitude or longitude is out of range.
	ErrInvalidCoordinates = eris.New("ingest: invalid coordinates")

	// ErrInvalidRadius means the radius is not a positive number.
	ErrInvalidRadius = eris.New("ingest: radius must be greater than zero")

	// ErrLocationRequired means neither an address nor coordinates were given,
	// or both were.
	ErrLocationRequired = eris.New("ingest: provide either an address or latitude and longitude")
)

// LocationInput is the user's choice of search center. Exactly one of Address
// or the Latitude/Longitude pair is set.
type LocationInput struct {
	Address   string
	Latitude  *float64
	Longitude *float64
	Radius    float64
}

// Location is a resolved search center.
type Location struct {
	Address     string // empty when coordinates were given directly
	DisplayName string
	Latitude    float64
	Longitude   float64
	Radius      float64
}

// Query converts the location into a search query with the given status.
func (l Location) Query(status string) Query {
	return Query{
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Radius:    l.Radius,
		Status:    status,
	}
}

// ResolveLocation validates in and geocodes the address when one is given.
// A geocoding miss returns ErrAddressNotFound; callers must stop there.
func ResolveLocation(ctx context.Context, gc geocode.Client, in LocationInput) (Location, error) {
	address := strings.TrimSpace(in.Address)
	hasCoords := in.Latitude != nil || in.Longitude != nil

	if (address == "") == !hasCoords {
		return Location{}, ErrLocationRequired
	}
	if !(in.Radius > 0) {
		return Location{}, eris.Wrapf(ErrInvalidRadius, "got %v", in.Radius)
	}

	if hasCoords {
		if in.Latitude == nil || in.Longitude == nil {
			return Location{}, ErrLocationRequired
		}
		if err := ValidateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return Location{}, err
		}
		return Location{
			Latitude:  *in.Latitude,
			Longitude: *in.Longitude,
			Radius:    in.Radius,
		}, nil
	}

	if gc == nil {
		return Location{}, eris.New("ingest: geocoder not configured")
	}
	res, err := gc.Geocode(ctx, address)
	if err != nil {
		return Location{}, eris.Wrapf(err, "ingest: geocode %q", address)
	}
	if res == nil || !res.Matched {
		zap.L().Info("ingest: address did not geocode", zap.String("address", address))
		return Location{}, eris.Wrapf(ErrAddressNotFound, "%q", address)
	}

	return Location{
		Address:     address,
		DisplayName: res.DisplayName,
		Latitude:    res.Latitude,
		Longitude:   res.Longitude,
		Radius:      in.Radius,
	}, nil
}

// ValidateCoordinates checks latitude is within [-90, 90] and longitude within
// [-180, 180]. NaN is rejected.
func ValidateCoordinates(lat, lon float64) error {
	if !(lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180) {
		return eris.Wrapf(ErrInvalidCoordinates, "(%v, %v)", lat, lon)
	}
	return nil
}
