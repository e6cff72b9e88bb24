package caltrack

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "caltrack",
	Short: "caltrack tracks nutrition, goals, and calorie balance from your terminal",
	Long:  "caltrack is a local-first nutrition and fitness CLI with goal targets, a daily food ledger, and calorie balance reconciliation against health data.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
}
