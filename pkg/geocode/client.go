// Package geocode resolves free-text addresses to coordinates via Nominatim
// (default), the Census Geocoder, or Google.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Provider names a geocoding backend.
type Provider string

const (
	ProviderNominatim Provider = "nominatim"
	ProviderCensus    Provider = "census"
	ProviderGoogle    Provider = "google"
)

// DefaultUserAgent identifies this application to Nominatim, whose usage
// policy rejects requests without one.
const DefaultUserAgent = "RentBeacon"

// Client geocodes a free-text address with a single configured provider.
type Client interface {
	// Geocode returns the best match for address. A miss is reported as
	// Result.Matched == false, not as an error.
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Source      string // "nominatim", "census" or "google"
	Quality     string // "rooftop", "range", "centroid", "approximate"
	Matched     bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithProvider selects the backend. Defaults to Nominatim.
func WithProvider(p Provider) Option {
	return func(g *geocoder) {
		if p != "" {
			g.provider = p
		}
	}
}

// WithGoogleAPIKey sets the key used by the Google provider.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second pacing for provider calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type geocoder struct {
	httpClient *http.Client
	provider   Provider
	googleKey  string
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) (Client, error) {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		provider:   ProviderNominatim,
		userAgent:  DefaultUserAgent,
		limiter:    rate.NewLimiter(1, 1), // Nominatim policy: 1 req/s
	}
	for _, opt := range opts {
		opt(g)
	}

	switch g.provider {
	case ProviderNominatim, ProviderCensus:
	case ProviderGoogle:
		if g.googleKey == "" {
			return nil, eris.New("geocode: google api key not configured")
		}
	default:
		return nil, eris.Errorf("geocode: unsupported provider %q", g.provider)
	}
	return g, nil
}

// Geocode resolves address with the configured provider.
func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return &Result{Matched: false, Source: string(g.provider)}, nil
	}

	var (
		result *Result
		err    error
	)
	switch g.provider {
	case ProviderCensus:
		result, err = g.geocodeCensus(ctx, address)
	case ProviderGoogle:
		result, err = g.geocodeGoogle(ctx, address)
	default:
		result, err = g.geocodeNominatim(ctx, address)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Debug("geocode",
		zap.String("provider", string(g.provider)),
		zap.String("address", address),
		zap.Bool("matched", result.Matched),
	)
	return result, nil
}
