package caltrack

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"caltrack/internal/health"
	"caltrack/internal/service"
)

var (
	balanceDate string
	balanceFile string
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the calorie balance for a day",
	Long:  "Balance is consumed minus burned. Burned energy comes from a health export when one is given, otherwise from the profile's estimated expenditure.",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(balanceDate)
		if err != nil {
			return err
		}
		var source health.Source = health.None{}
		if balanceFile != "" {
			src, err := health.LoadFile(balanceFile)
			if err != nil {
				return err
			}
			source = src
		}
		return withDB(func(sqldb *sql.DB) error {
			engine := service.NewBalanceEngine(sqldb, source, nil)
			b, err := engine.ComputeBalance(context.Background(), date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", b.Date)
			fmt.Fprintf(cmd.OutOrStdout(), "Consumed: %d kcal\n", b.CaloriesConsumed)
			fmt.Fprintf(cmd.OutOrStdout(), "Burned: %.0f kcal (resting %.0f + active %.0f)\n", b.TotalBurned, b.RestingEnergy, b.ActiveEnergy)
			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %+.0f kcal\n", b.Balance)
			if b.UsingMeasured {
				fmt.Fprintln(cmd.OutOrStdout(), "Energy data: measured")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Energy data: estimated")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVar(&balanceDate, "date", "", "Date YYYY-MM-DD (default today)")
	balanceCmd.Flags().StringVar(&balanceFile, "file", "", "Path to JSON health export")
}
