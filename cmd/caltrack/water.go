package caltrack

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"caltrack/internal/service"
)

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Log and review water intake",
}

var (
	waterAmount float64
	waterDate   string
	waterTime   string
)

var waterAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a water intake event",
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseDateTimeOrNow(waterDate, waterTime)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.AddWater(sqldb, nil, waterAmount, at); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %.0f mL\n", waterAmount)
			return nil
		})
	},
}

var waterShowDate string

var waterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a day's water total against the target",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateKeyOrToday(waterShowDate)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			day, err := service.GetDay(sqldb, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Water: %.0f / %.0f mL\n", day.WaterMl, day.WaterTargetMl)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(waterCmd)
	waterCmd.AddCommand(waterAddCmd)
	waterCmd.AddCommand(waterShowCmd)

	waterAddCmd.Flags().Float64Var(&waterAmount, "amount", 0, "Amount in mL")
	waterAddCmd.Flags().StringVar(&waterDate, "date", "", "Date YYYY-MM-DD (default today)")
	waterAddCmd.Flags().StringVar(&waterTime, "time", "", "Time HH:MM")
	waterAddCmd.MarkFlagRequired("amount")

	waterShowCmd.Flags().StringVar(&waterShowDate, "date", "", "Date YYYY-MM-DD (default today)")
}
