package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rentbeacon/internal/store"
	"github.com/sells-group/rentbeacon/pkg/geocode"
	"github.com/sells-group/rentbeacon/pkg/rentcast"
)

const defaultSQLitePath = "rentbeacon.db"

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{MaxConns: cfg.Store.MaxConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initRentCast() (rentcast.Client, error) {
	if err := cfg.Validate("rentcast"); err != nil {
		return nil, err
	}
	return rentcast.NewClient(cfg.RentCast.APIKey,
		rentcast.WithBaseURL(cfg.RentCast.BaseURL),
		rentcast.WithTimeout(seconds(cfg.RentCast.TimeoutSecs)),
	)
}

func initGeocoder() (geocode.Client, error) {
	if err := cfg.Validate("geocode"); err != nil {
		return nil, err
	}
	return geocode.NewClient(
		geocode.WithProvider(geocode.Provider(cfg.Geocode.Provider)),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithGoogleAPIKey(cfg.Geocode.GoogleAPIKey),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithHTTPClient(&http.Client{Timeout: seconds(cfg.Geocode.TimeoutSecs)}),
	)
}

// seconds converts a config value to a duration, falling back to 30s.
func seconds(n int) time.Duration {
	if n <= 0 {
		return 30 * time.Second
	}
	return time.Duration(n) * time.Second
}
