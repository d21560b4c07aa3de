package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5000 Forbes Ave, Pittsburgh PA", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "rentbeacon-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{
			"lat": "40.4441897",
			"lon": "-79.9427192",
			"display_name": "Carnegie Mellon University, 5000, Forbes Avenue, Pittsburgh",
			"place_rank": 30
		}]`)
	}))
	defer srv.Close()

	g := newTestGeocoder(ProviderNominatim, srv.URL, nominatimSearchURL)

	result, err := g.Geocode(context.Background(), "  5000 Forbes Ave, Pittsburgh PA ")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 40.4441897, result.Latitude, 1e-7)
	assert.InDelta(t, -79.9427192, result.Longitude, 1e-7)
	assert.Equal(t, "nominatim", result.Source)
	assert.Equal(t, "rooftop", result.Quality)
	assert.Contains(t, result.DisplayName, "Forbes Avenue")
}

func TestNominatimGeocode_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	g := newTestGeocoder(ProviderNominatim, srv.URL, nominatimSearchURL)

	result, err := g.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, "nominatim", result.Source)
}

func TestNominatimGeocode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"forbidden", http.StatusForbidden, `blocked`, "status 403"},
		{"bad_json", http.StatusOK, `{not json`, "parse response"},
		{"bad_lat", http.StatusOK, `[{"lat":"north","lon":"1"}]`, "parse lat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			g := newTestGeocoder(ProviderNominatim, srv.URL, nominatimSearchURL)
			result, err := g.Geocode(context.Background(), "somewhere")
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPlaceRankToQuality(t *testing.T) {
	tests := []struct {
		rank int
		want string
	}{
		{30, "rooftop"},
		{27, "range"},
		{16, "centroid"},
		{8, "approximate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, placeRankToQuality(tt.rank))
	}
}
