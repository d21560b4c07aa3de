package geocode

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

const nominatimSearchURL = "https://nominatim.openstreetmap.org/search"

// nominatimPlace is one element of the jsonv2 search response. Coordinates
// arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	PlaceRank   int    `json:"place_rank"`
}

func (g *geocoder) geocodeNominatim(ctx context.Context, address string) (*Result, error) {
	var places []nominatimPlace
	params := url.Values{"q": {address}, "format": {"jsonv2"}, "limit": {"1"}}
	if err := g.getJSON(ctx, ProviderNominatim, nominatimSearchURL, params, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return miss(ProviderNominatim), nil
	}

	best := places[0]
	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse lat")
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse lon")
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: best.DisplayName,
		Source:      string(ProviderNominatim),
		Quality:     placeRankToQuality(best.PlaceRank),
		Matched:     true,
	}, nil
}

// placeRankToQuality buckets Nominatim's place_rank (30 is a building, 26 a
// street, 16 a city).
func placeRankToQuality(rank int) string {
	switch {
	case rank >= 30:
		return "rooftop"
	case rank >= 26:
		return "range"
	case rank >= 16:
		return "centroid"
	default:
		return "approximate"
	}
}
