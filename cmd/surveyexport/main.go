package main

import (
	"fmt"
	"os"

	"surveyadmin/internal/app"

	"github.com/spf13/cobra"
)

var (
	flagDSN string
	cfg     app.Config
)

var rootCmd = &cobra.Command{
	Use:   "surveyexport",
	Short: "Export survey responses from the command line",
	Long: `surveyexport renders survey responses to CSV or XLSX without going
through the admin web server. It reads the same environment variables as the
web binary (DB_DSN, USER_DID_NOT_ANSWER, EXCEL_COMPATIBLE_CSV, ...).`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		cfg = app.LoadConfig()
		if flagDSN != "" {
			cfg.DBDSN = flagDSN
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "postgres connection string (env: DB_DSN)")

	rootCmd.AddCommand(newExportCmd("csv"))
	rootCmd.AddCommand(newExportCmd("xlsx"))
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCreateAdminCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
