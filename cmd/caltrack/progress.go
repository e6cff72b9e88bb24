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

var progressFile string

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Evaluate progress against the active goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		var source health.Source = health.None{}
		if progressFile != "" {
			src, err := health.LoadFile(progressFile)
			if err != nil {
				return err
			}
			source = src
		}
		return withDB(func(sqldb *sql.DB) error {
			now := time.Now()
			goal, err := service.ActiveGoal(sqldb)
			if err != nil {
				return err
			}
			if goal == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No active goal. Run: caltrack goal set")
				return nil
			}
			weight, _, err := service.LatestWeightKg(sqldb)
			if err != nil {
				return err
			}
			engine := service.NewBalanceEngine(sqldb, source, nil)
			balances, err := engine.BalanceRange(context.Background(), goal.CreatedAt, now)
			if err != nil {
				return err
			}
			report := service.EvaluateProgress(goal, weight, balances, now)

			fmt.Fprintf(cmd.OutOrStdout(), "Goal: %s at %+.2f kg/week\n", goal.Type, goal.WeeklyRateKg)
			fmt.Fprintf(cmd.OutOrStdout(), "This week: %s (%+.0f / %+.0f kcal over %d days)\n",
				report.Weekly.Status, report.Weekly.ActualKcal, report.Weekly.TargetKcal, report.Weekly.Days)
			fmt.Fprintf(cmd.OutOrStdout(), "Overall: %s (%+.0f / %+.0f kcal over %d days)\n",
				report.Overall.Status, report.Overall.ActualKcal, report.Overall.TargetKcal, report.Overall.Days)
			if report.DaysRemaining >= 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Days remaining: %d\n", report.DaysRemaining)
			}
			for _, insight := range report.Insights {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", insight)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.Flags().StringVar(&progressFile, "file", "", "Path to JSON health export")
}
