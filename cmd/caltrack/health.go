package caltrack

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"caltrack/internal/health"
	"caltrack/internal/service"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Ingest health data exports",
}

var healthImportFile string

var healthImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import workouts and weight from a JSON export file",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := health.LoadFile(healthImportFile)
		if err != nil {
			return err
		}
		ctx := context.Background()
		// Wide window: exports carry their own dates.
		from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.Local)
		to := time.Now().AddDate(1, 0, 0)
		workouts, err := src.Workouts(ctx, from, to)
		if err != nil {
			return err
		}
		weight, hasWeight, err := src.Weight(ctx)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			n, err := service.IngestWorkouts(sqldb, nil, workouts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d workouts (%d new or changed)\n", len(workouts), n)
			if hasWeight {
				if err := service.UpdateWeight(sqldb, nil, weight, "kg", "import", time.Now()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated weight to %.1f kg\n", weight)
			}
			return nil
		})
	},
}

var (
	healthPullFile string
	healthPullDate string
)

var healthPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Show measured energy from an export for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(healthPullDate)
		if err != nil {
			return err
		}
		src, err := health.LoadFile(healthPullFile)
		if err != nil {
			return err
		}
		ctx := context.Background()
		resting, err := src.RestingEnergy(ctx, date)
		if err != nil {
			return err
		}
		active, err := src.ActiveEnergy(ctx, date)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", date.Format("2006-01-02"))
		fmt.Fprintf(cmd.OutOrStdout(), "Resting: %.0f kcal\n", resting)
		fmt.Fprintf(cmd.OutOrStdout(), "Active: %.0f kcal\n", active)
		fmt.Fprintf(cmd.OutOrStdout(), "Total: %.0f kcal\n", resting+active)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.AddCommand(healthImportCmd)
	healthCmd.AddCommand(healthPullCmd)

	healthImportCmd.Flags().StringVar(&healthImportFile, "file", "", "Path to JSON export")
	healthImportCmd.MarkFlagRequired("file")

	healthPullCmd.Flags().StringVar(&healthPullFile, "file", "", "Path to JSON export")
	healthPullCmd.Flags().StringVar(&healthPullDate, "date", "", "Date YYYY-MM-DD (default today)")
	healthPullCmd.MarkFlagRequired("file")
}
