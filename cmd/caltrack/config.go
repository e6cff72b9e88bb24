package caltrack

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"caltrack/internal/service"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage caltrack local configuration",
}

var (
	cfgRefreshInterval string
	cfgWaterTarget     string
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			updates := 0
			if cmd.Flags().Changed("refresh-interval") {
				if _, err := time.ParseDuration(cfgRefreshInterval); err != nil {
					return fmt.Errorf("invalid --refresh-interval %q (expected e.g. 5m)", cfgRefreshInterval)
				}
				if err := service.SetConfig(sqldb, service.ConfigRefreshInterval, cfgRefreshInterval); err != nil {
					return err
				}
				updates++
			}
			if cmd.Flags().Changed("water-target") {
				if err := service.SetConfig(sqldb, service.ConfigWaterTargetMl, cfgWaterTarget); err != nil {
					return err
				}
				updates++
			}
			if updates == 0 {
				return fmt.Errorf("set at least one flag")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d config value(s)\n", updates)
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			cfg, err := service.ListConfig(sqldb)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(cfg))
			for k := range cfg {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, cfg[k])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)

	configSetCmd.Flags().StringVar(&cfgRefreshInterval, "refresh-interval", "", "Balance refresh interval (e.g. 5m)")
	configSetCmd.Flags().StringVar(&cfgWaterTarget, "water-target", "", "Daily water target in mL")
}
