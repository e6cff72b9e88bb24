package caltrack

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"caltrack/internal/bus"
	"caltrack/internal/health"
	"caltrack/internal/httpapi"
	"caltrack/internal/service"
)

var (
	serveAddr string
	serveFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only JSON API over the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Optional .env for local overrides; absence is not an error.
		_ = godotenv.Load()
		if serveAddr == "" {
			serveAddr = os.Getenv("CALTRACK_ADDR")
		}
		if serveAddr == "" {
			serveAddr = ":8080"
		}
		if serveFile == "" {
			serveFile = os.Getenv("CALTRACK_HEALTH_EXPORT")
		}

		var source health.Source = health.None{}
		if serveFile != "" {
			src, err := health.LoadFile(serveFile)
			if err != nil {
				return err
			}
			source = src
		}

		return withDB(func(sqldb *sql.DB) error {
			opts := []service.EngineOption{}
			if raw, ok, err := service.GetConfig(sqldb, service.ConfigRefreshInterval); err != nil {
				return err
			} else if ok {
				if d, err := time.ParseDuration(raw); err == nil && d > 0 {
					opts = append(opts, service.WithRefreshInterval(d))
				} else {
					log.Printf("serve: ignoring invalid %s %q", service.ConfigRefreshInterval, raw)
				}
			}

			engine := service.NewBalanceEngine(sqldb, source, bus.New(), opts...)
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go engine.Run(ctx)

			server := httpapi.NewServer(sqldb, engine)
			log.Printf("serve: listening on %s", serveAddr)
			return server.Router().Run(serveAddr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :8080 or CALTRACK_ADDR)")
	serveCmd.Flags().StringVar(&serveFile, "file", "", "Path to JSON health export (or CALTRACK_HEALTH_EXPORT)")
}
