package caltrack

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"caltrack/internal/service"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the user profile",
}

var (
	profileName     string
	profileSex      string
	profileAge      int
	profileHeight   float64
	profileWeight   float64
	profileUnit     string
	profileActivity string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			err := service.SetProfile(sqldb, nil, service.SetProfileInput{
				Name:          profileName,
				Sex:           profileSex,
				Age:           profileAge,
				HeightCm:      profileHeight,
				Weight:        profileWeight,
				Unit:          profileUnit,
				ActivityLevel: profileActivity,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile saved")
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile and derived energy baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.GetProfile(sqldb)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile set. Run: caltrack profile set")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Name: %s\n", p.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Sex: %s\n", p.Sex)
			fmt.Fprintf(cmd.OutOrStdout(), "Age: %d\n", p.Age)
			fmt.Fprintf(cmd.OutOrStdout(), "Height: %.1f cm\n", p.HeightCm)
			fmt.Fprintf(cmd.OutOrStdout(), "Weight: %.1f kg\n", p.WeightKg)
			fmt.Fprintf(cmd.OutOrStdout(), "Activity: %s\n", p.ActivityLevel)
			baseline, source := service.EnergyBaseline(*p, 0)
			fmt.Fprintf(cmd.OutOrStdout(), "BMR: %.0f kcal\n", service.BMR(p.WeightKg, p.HeightCm, p.Age, p.Sex))
			fmt.Fprintf(cmd.OutOrStdout(), "Maintenance: %.0f kcal (%s)\n", baseline, source)
			return nil
		})
	},
}

var (
	weightValue float64
	weightUnit  string
	weightDate  string
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Record and review body weight",
}

var weightAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a weight measurement",
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseDateOrToday(weightDate)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.UpdateWeight(sqldb, nil, weightValue, weightUnit, "manual", at); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Weight recorded")
			return nil
		})
	},
}

var weightHistoryLimit int

var weightHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent weight measurements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			samples, err := service.WeightHistory(sqldb, weightHistoryLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tWEIGHT_KG\tSOURCE")
			for _, s := range samples {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.1f\t%s\n", s.MeasuredAt.Local().Format("2006-01-02"), s.WeightKg, s.Source)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileShowCmd)

	profileSetCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileSetCmd.Flags().StringVar(&profileSex, "sex", "", "Sex (male|female|other)")
	profileSetCmd.Flags().IntVar(&profileAge, "age", 0, "Age in years")
	profileSetCmd.Flags().Float64Var(&profileHeight, "height", 0, "Height in cm")
	profileSetCmd.Flags().Float64Var(&profileWeight, "weight", 0, "Current weight")
	profileSetCmd.Flags().StringVar(&profileUnit, "unit", "kg", "Weight unit (kg|lb)")
	profileSetCmd.Flags().StringVar(&profileActivity, "activity", "sedentary", "Activity level (sedentary|light|moderate|active|very_active)")
	profileSetCmd.MarkFlagRequired("age")
	profileSetCmd.MarkFlagRequired("height")
	profileSetCmd.MarkFlagRequired("weight")

	rootCmd.AddCommand(weightCmd)
	weightCmd.AddCommand(weightAddCmd)
	weightCmd.AddCommand(weightHistoryCmd)

	weightAddCmd.Flags().Float64Var(&weightValue, "value", 0, "Weight value")
	weightAddCmd.Flags().StringVar(&weightUnit, "unit", "kg", "Weight unit (kg|lb)")
	weightAddCmd.Flags().StringVar(&weightDate, "date", "", "Date YYYY-MM-DD (default today)")
	weightAddCmd.MarkFlagRequired("value")

	weightHistoryCmd.Flags().IntVar(&weightHistoryLimit, "limit", 30, "Max rows")
}
