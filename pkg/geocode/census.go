package geocode

import (
	"context"
	"net/url"
)

// censusOneLineURL only resolves US street addresses.
const censusOneLineURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"

type censusOneLineResponse struct {
	Result struct {
		AddressMatches []struct {
			MatchedAddress string `json:"matchedAddress"`
			Coordinates    struct {
				X float64 `json:"x"` // longitude
				Y float64 `json:"y"` // latitude
			} `json:"coordinates"`
		} `json:"addressMatches"`
	} `json:"result"`
}

func (g *geocoder) geocodeCensus(ctx context.Context, address string) (*Result, error) {
	var resp censusOneLineResponse
	params := url.Values{
		"address":   {address},
		"benchmark": {"Public_AR_Current"},
		"format":    {"json"},
	}
	if err := g.getJSON(ctx, ProviderCensus, censusOneLineURL, params, &resp); err != nil {
		return nil, err
	}

	matches := resp.Result.AddressMatches
	if len(matches) == 0 {
		return miss(ProviderCensus), nil
	}
	return &Result{
		Latitude:    matches[0].Coordinates.Y,
		Longitude:   matches[0].Coordinates.X,
		DisplayName: matches[0].MatchedAddress,
		Source:      string(ProviderCensus),
		Quality:     "rooftop",
		Matched:     true,
	}, nil
}
