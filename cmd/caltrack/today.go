package caltrack

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"caltrack/internal/service"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's intake, exercise, and target progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateKeyOrToday(todayDate)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			day, err := service.GetDay(sqldb, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", day.Date)
			fmt.Fprintf(cmd.OutOrStdout(), "Intake: %d kcal\n", day.Calories)
			fmt.Fprintf(cmd.OutOrStdout(), "Exercise: %d kcal\n", day.ExerciseCalories)
			fmt.Fprintf(cmd.OutOrStdout(), "Net: %d kcal\n", day.NetCalories())
			fmt.Fprintf(cmd.OutOrStdout(), "Macros: P %.1fg | C %.1fg | F %.1fg\n", day.ProteinG, day.CarbsG, day.FatG)
			fmt.Fprintf(cmd.OutOrStdout(), "Water: %.0f / %.0f mL\n", day.WaterMl, day.WaterTargetMl)
			if day.CalorieTarget > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Target: %.0f kcal | P %.0fg | C %.0fg | F %.0fg\n",
					day.CalorieTarget, day.ProteinTargetG, day.CarbsTargetG, day.FatTargetG)
				fmt.Fprintf(cmd.OutOrStdout(), "Remaining: %.0f kcal (%.0f%% consumed)\n",
					day.RemainingCalories(), day.CalorieProgress()*100)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Target: not set")
			}

			meals, err := service.MealBreakdown(sqldb, date)
			if err != nil {
				return err
			}
			if len(meals) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nMEAL\tENTRIES\tKCAL\tP\tC\tF")
				for _, m := range meals {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%d\t%.1f\t%.1f\t%.1f\n",
						m.Meal, m.Entries, m.Calories, m.ProteinG, m.CarbsG, m.FatG)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
}
