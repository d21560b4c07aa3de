package geocode

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

type googleGeocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *geocoder) geocodeGoogle(ctx context.Context, address string) (*Result, error) {
	if g.googleKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	var resp googleGeocodeResponse
	params := url.Values{"address": {address}, "key": {g.googleKey}}
	if err := g.getJSON(ctx, ProviderGoogle, googleGeocodeURL, params, &resp); err != nil {
		return nil, err
	}

	// ZERO_RESULTS and every other non-OK status count as a miss.
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return miss(ProviderGoogle), nil
	}

	top := resp.Results[0]
	return &Result{
		Latitude:    top.Geometry.Location.Lat,
		Longitude:   top.Geometry.Location.Lng,
		DisplayName: top.FormattedAddress,
		Source:      string(ProviderGoogle),
		Quality:     googleLocationTypeToQuality(top.Geometry.LocationType),
		Matched:     true,
	}, nil
}

// googleLocationTypeToQuality maps Google's location_type onto Result.Quality.
func googleLocationTypeToQuality(locType string) string {
	switch strings.ToUpper(locType) {
	case "ROOFTOP":
		return "rooftop"
	case "RANGE_INTERPOLATED":
		return "range"
	case "GEOMETRIC_CENTER":
		return "centroid"
	}
	return "approximate"
}
