package caltrack

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"caltrack/internal/service"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage food entries",
}

var (
	entryName     string
	entryCalories int
	entryProtein  float64
	entryCarbs    float64
	entryFat      float64
	entryMeal     string
	entryNotes    string
	entryDate     string
	entryTime     string
)

func buildEntryInput(cmd *cobra.Command) (service.AddFoodEntryInput, error) {
	consumed, err := parseDateTimeOrNow(entryDate, entryTime)
	if err != nil {
		return service.AddFoodEntryInput{}, err
	}
	in := service.AddFoodEntryInput{
		Name:       entryName,
		Calories:   entryCalories,
		Meal:       entryMeal,
		Notes:      entryNotes,
		ConsumedAt: consumed,
	}
	if cmd.Flags().Changed("protein") {
		in.ProteinG = &entryProtein
	}
	if cmd.Flags().Changed("carbs") {
		in.CarbsG = &entryCarbs
	}
	if cmd.Flags().Changed("fat") {
		in.FatG = &entryFat
	}
	return in, nil
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a food entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := buildEntryInput(cmd)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.AddFoodEntry(sqldb, nil, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %d\n", id)
			return nil
		})
	},
}

var entryListDate string

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List food entries for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateKeyOrToday(entryListDate)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			entries, err := service.ListFoodEntries(sqldb, date)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tTIME\tMEAL\tNAME\tKCAL\tP\tC\tF")
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					e.ID, e.ConsumedAt.Local().Format("15:04"), e.Meal, e.Name, e.Calories,
					fmtMacro(e.ProteinG), fmtMacro(e.CarbsG), fmtMacro(e.FatG))
			}
			return nil
		})
	},
}

var entryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a food entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		in, err := buildEntryInput(cmd)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			err := service.UpdateFoodEntry(sqldb, nil, service.UpdateFoodEntryInput{ID: id, AddFoodEntryInput: in})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %d\n", id)
			return nil
		})
	},
}

var entryRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a food entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteFoodEntry(sqldb, nil, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d\n", id)
			return nil
		})
	},
}

func fmtMacro(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func addEntryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&entryName, "name", "", "Food name")
	cmd.Flags().IntVar(&entryCalories, "calories", 0, "Calories (kcal)")
	cmd.Flags().Float64Var(&entryProtein, "protein", 0, "Protein grams")
	cmd.Flags().Float64Var(&entryCarbs, "carbs", 0, "Carb grams")
	cmd.Flags().Float64Var(&entryFat, "fat", 0, "Fat grams")
	cmd.Flags().StringVar(&entryMeal, "meal", "", "Meal tag (breakfast|lunch|dinner|snack)")
	cmd.Flags().StringVar(&entryNotes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&entryDate, "date", "", "Date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&entryTime, "time", "", "Time HH:MM")
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd)
	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryUpdateCmd)
	entryCmd.AddCommand(entryRmCmd)

	addEntryFlags(entryAddCmd)
	entryAddCmd.MarkFlagRequired("name")
	entryAddCmd.MarkFlagRequired("calories")

	addEntryFlags(entryUpdateCmd)
	entryUpdateCmd.MarkFlagRequired("name")
	entryUpdateCmd.MarkFlagRequired("calories")

	entryListCmd.Flags().StringVar(&entryListDate, "date", "", "Date YYYY-MM-DD (default today)")
}
