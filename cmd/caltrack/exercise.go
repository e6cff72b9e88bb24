package caltrack

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"caltrack/internal/service"
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Log and review exercise",
}

var (
	exerciseType     string
	exerciseCalories int
	exerciseDuration int
	exerciseNotes    string
	exerciseDate     string
	exerciseTime     string
)

var exerciseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log an exercise session",
	RunE: func(cmd *cobra.Command, args []string) error {
		performed, err := parseDateTimeOrNow(exerciseDate, exerciseTime)
		if err != nil {
			return err
		}
		in := service.AddExerciseInput{
			ExerciseType:   exerciseType,
			CaloriesBurned: exerciseCalories,
			PerformedAt:    performed,
			Notes:          exerciseNotes,
		}
		if cmd.Flags().Changed("duration") {
			in.DurationMin = &exerciseDuration
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.AddExercise(sqldb, nil, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged exercise %d\n", id)
			return nil
		})
	},
}

var exerciseListDate string

var exerciseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exercise for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateKeyOrToday(exerciseListDate)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			logs, err := service.ListExercise(sqldb, date)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tTIME\tTYPE\tKCAL\tMIN")
			for _, l := range logs {
				min := "-"
				if l.DurationMin != nil {
					min = fmt.Sprintf("%d", *l.DurationMin)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%d\t%s\n",
					l.ID, l.PerformedAt.Local().Format("15:04"), l.ExerciseType, l.CaloriesBurned, min)
			}
			return nil
		})
	},
}

var (
	exerciseSetDate  string
	exerciseSetTotal int
)

var exerciseSetCmd = &cobra.Command{
	Use:   "set-total",
	Short: "Set a day's total exercise calories directly",
	Long:  "Overwrites any previous manual total for the day. Individually logged sessions are kept and counted separately.",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateKeyOrToday(exerciseSetDate)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.UpdateExerciseCalories(sqldb, nil, date, exerciseSetTotal); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set manual exercise total for %s\n", date)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exerciseCmd)
	exerciseCmd.AddCommand(exerciseAddCmd)
	exerciseCmd.AddCommand(exerciseListCmd)
	exerciseCmd.AddCommand(exerciseSetCmd)

	exerciseAddCmd.Flags().StringVar(&exerciseType, "type", "", "Exercise type (running, cycling, ...)")
	exerciseAddCmd.Flags().IntVar(&exerciseCalories, "calories", 0, "Calories burned")
	exerciseAddCmd.Flags().IntVar(&exerciseDuration, "duration", 0, "Duration in minutes")
	exerciseAddCmd.Flags().StringVar(&exerciseNotes, "notes", "", "Free-form notes")
	exerciseAddCmd.Flags().StringVar(&exerciseDate, "date", "", "Date YYYY-MM-DD (default today)")
	exerciseAddCmd.Flags().StringVar(&exerciseTime, "time", "", "Time HH:MM")
	exerciseAddCmd.MarkFlagRequired("type")
	exerciseAddCmd.MarkFlagRequired("calories")

	exerciseListCmd.Flags().StringVar(&exerciseListDate, "date", "", "Date YYYY-MM-DD (default today)")

	exerciseSetCmd.Flags().StringVar(&exerciseSetDate, "date", "", "Date YYYY-MM-DD (default today)")
	exerciseSetCmd.Flags().IntVar(&exerciseSetTotal, "calories", 0, "Total calories for the day")
	exerciseSetCmd.MarkFlagRequired("calories")
}
