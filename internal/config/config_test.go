package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves into an empty temp dir so no config.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, "https://api.rentcast.io/v1/listings/rental/long-term", cfg.RentCast.BaseURL)
	assert.Equal(t, 30, cfg.RentCast.TimeoutSecs)
	assert.Equal(t, "nominatim", cfg.Geocode.Provider)
	assert.Equal(t, "RentBeacon", cfg.Geocode.UserAgent)
	assert.InDelta(t, 1.0, cfg.Geocode.RateLimit, 0.001)
	assert.Equal(t, "Active", cfg.Fetch.Status)
	assert.InDelta(t, 5.0, cfg.Fetch.DefaultRadius, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: listings.db
geocode:
  provider: census
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "listings.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "census", cfg.Geocode.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "Active", cfg.Fetch.Status)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RENTBEACON_STORE_DRIVER", "postgres")
	t.Setenv("RENTBEACON_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RENTCAST_API_KEY", "legacy-key")
	t.Setenv("RENTCAST_API_URL", "https://example.test/listings")
	t.Setenv("DATABASE_URL", "postgres://localhost/rent")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-key", cfg.RentCast.APIKey)
	assert.Equal(t, "https://example.test/listings", cfg.RentCast.BaseURL)
	assert.Equal(t, "postgres://localhost/rent", cfg.Store.DatabaseURL)
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RENTCAST_API_KEY", "legacy-key")
	t.Setenv("RENTBEACON_RENTCAST_API_KEY", "new-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "new-key", cfg.RentCast.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	// godotenv sets process env directly; make sure the test restores it.
	t.Setenv("RENTCAST_API_KEY", "")
	require.NoError(t, os.Unsetenv("RENTCAST_API_KEY"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RENTCAST_API_KEY=from-dotenv\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.RentCast.APIKey)
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := chdirTemp(t)

	t.Setenv("RENTCAST_API_KEY", "from-env")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RENTCAST_API_KEY=from-dotenv\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.RentCast.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		component string
		wantErr   string
	}{
		{
			name:      "postgres_missing_url",
			cfg:       Config{Store: StoreConfig{Driver: "postgres"}},
			component: "store",
			wantErr:   "store.database_url is required",
		},
		{
			name:      "postgres_ok",
			cfg:       Config{Store: StoreConfig{Driver: "postgres", DatabaseURL: "postgres://x"}},
			component: "store",
		},
		{
			name:      "sqlite_without_url_ok",
			cfg:       Config{Store: StoreConfig{Driver: "sqlite"}},
			component: "store",
		},
		{
			name:      "unknown_driver",
			cfg:       Config{Store: StoreConfig{Driver: "mysql"}},
			component: "store",
			wantErr:   "unsupported store driver: mysql",
		},
		{
			name:      "rentcast_missing_both",
			cfg:       Config{},
			component: "rentcast",
			wantErr:   "RENTCAST_API_KEY or RENTCAST_API_URL not set",
		},
		{
			name:      "rentcast_missing_url",
			cfg:       Config{RentCast: RentCastConfig{APIKey: "k"}},
			component: "rentcast",
			wantErr:   "RENTCAST_API_URL not set",
		},
		{
			name:      "rentcast_ok",
			cfg:       Config{RentCast: RentCastConfig{APIKey: "k", BaseURL: "https://x"}},
			component: "rentcast",
		},
		{
			name:      "google_needs_key",
			cfg:       Config{Geocode: GeocodeConfig{Provider: "google"}},
			component: "geocode",
			wantErr:   "google_api_key is required",
		},
		{
			name:      "nominatim_ok",
			cfg:       Config{Geocode: GeocodeConfig{Provider: "nominatim"}},
			component: "geocode",
		},
		{
			name:      "unknown_component",
			cfg:       Config{},
			component: "salesforce",
			wantErr:   `unknown component "salesforce"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.component)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
