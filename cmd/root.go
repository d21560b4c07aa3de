package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rentbeacon/internal/config"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "rentbeacon",
	Short:   "Pull nearby RentCast rentals into a listings table",
	Version: version,
	Long: `rentbeacon geocodes an address (or takes coordinates), searches RentCast for
long-term rentals within a radius, and upserts them into a listings table keyed
by provider id. Re-running a search updates rows in place.

Settings come from config.yaml, a .env file, and RENTBEACON_* environment
variables. The older RENTCAST_API_KEY, RENTCAST_API_URL and DATABASE_URL names
are still honored. Set RENTBEACON_STORE_DRIVER=sqlite to use a local file
instead of Postgres.`,
	Example: `  rentbeacon init-db
  rentbeacon fetch --address "5000 Forbes Ave, Pittsburgh, PA" --radius 2
  rentbeacon fetch --lat 40.4433 --lon -79.9436
  rentbeacon fetch --fixture
  rentbeacon inspect --limit 10
  rentbeacon inspect --provider-id 212-S-Craig-St,-Pittsburgh,-PA-15213
  rentbeacon ping`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("starting", zap.String("command", cmd.Name()), zap.String("version", version))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
