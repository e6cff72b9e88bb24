package caltrack

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"caltrack/internal/model"
	"caltrack/internal/service"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage weight goals and derived daily targets",
}

var (
	goalType         string
	goalRate         float64
	goalTargetWeight float64
	goalUnit         string
	goalTargetDate   string
	goalWater        float64
	goalTDEE         float64
)

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the active goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.SetGoalInput{
			Type:         model.GoalType(goalType),
			WeeklyRateKg: goalRate,
			Unit:         goalUnit,
			TargetDate:   goalTargetDate,
			WaterMl:      goalWater,
			MeasuredTDEE: goalTDEE,
		}
		if cmd.Flags().Changed("target-weight") {
			in.TargetWeight = &goalTargetWeight
		}
		return withDB(func(sqldb *sql.DB) error {
			goal, err := service.SetGoal(sqldb, nil, in)
			if err != nil {
				var safety *service.GoalSafetyError
				if errors.As(err, &safety) {
					return fmt.Errorf("%s (try --rate %.2f)", safety.Reason, safety.Suggested)
				}
				return err
			}
			printGoal(cmd, goal)
			return nil
		})
	},
}

var goalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			goal, err := service.ActiveGoal(sqldb)
			if err != nil {
				return err
			}
			if goal == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No active goal. Run: caltrack goal set")
				return nil
			}
			printGoal(cmd, goal)
			return nil
		})
	},
}

var goalHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List all goals, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			goals, err := service.GoalHistory(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tTYPE\tRATE_KG_WK\tKCAL\tACTIVE\tCREATED")
			for _, g := range goals {
				active := ""
				if g.Active {
					active = "yes"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%+.2f\t%.0f\t%s\t%s\n",
					g.ID, g.Type, g.WeeklyRateKg, g.CalorieTarget, active, g.CreatedAt.Local().Format("2006-01-02"))
			}
			return nil
		})
	},
}

var goalSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest the nearest safe weekly rate for a goal type",
	RunE: func(cmd *cobra.Command, args []string) error {
		suggested := service.SuggestSafeRate(model.GoalType(goalType), goalRate)
		fmt.Fprintf(cmd.OutOrStdout(), "Nearest safe rate for %s: %+.2f kg/week\n", goalType, suggested)
		return nil
	},
}

func printGoal(cmd *cobra.Command, g *model.Goal) {
	fmt.Fprintf(cmd.OutOrStdout(), "Goal: %s at %+.2f kg/week\n", g.Type, g.WeeklyRateKg)
	if g.TargetWeightKg != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Target weight: %.1f kg\n", *g.TargetWeightKg)
	}
	if g.TargetDate != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Target date: %s\n", g.TargetDate)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Daily targets: %.0f kcal | P %.0fg | C %.0fg | F %.0fg (sat %.0fg) | water %.0f mL\n",
		g.CalorieTarget, g.ProteinG, g.CarbsG, g.FatG, g.SatFatG, g.WaterMl)
	fmt.Fprintf(cmd.OutOrStdout(), "Daily balance target: %+.0f kcal\n", g.DailyAdjustment())
}

func init() {
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalSetCmd)
	goalCmd.AddCommand(goalShowCmd)
	goalCmd.AddCommand(goalHistoryCmd)
	goalCmd.AddCommand(goalSuggestCmd)

	goalSetCmd.Flags().StringVar(&goalType, "type", "", "Goal type (lose|maintain|gain)")
	goalSetCmd.Flags().Float64Var(&goalRate, "rate", 0, "Weekly rate in kg (negative to lose)")
	goalSetCmd.Flags().Float64Var(&goalTargetWeight, "target-weight", 0, "Target weight")
	goalSetCmd.Flags().StringVar(&goalUnit, "unit", "kg", "Weight unit (kg|lb)")
	goalSetCmd.Flags().StringVar(&goalTargetDate, "target-date", "", "Target date YYYY-MM-DD")
	goalSetCmd.Flags().Float64Var(&goalWater, "water", 0, "Daily water target in mL (default 2000)")
	goalSetCmd.Flags().Float64Var(&goalTDEE, "tdee", 0, "Measured daily expenditure, overrides the formula baseline")
	goalSetCmd.MarkFlagRequired("type")

	goalSuggestCmd.Flags().StringVar(&goalType, "type", "", "Goal type (lose|maintain|gain)")
	goalSuggestCmd.Flags().Float64Var(&goalRate, "rate", 0, "Desired weekly rate in kg")
	goalSuggestCmd.MarkFlagRequired("type")
	goalSuggestCmd.MarkFlagRequired("rate")
}
