// Package cmd provides the commands of the costctl CLI.
package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"delivery_costs_backend/internal/config"
	"delivery_costs_backend/internal/database"
	"delivery_costs_backend/internal/services"
	"delivery_costs_backend/pkg/utils"
)

var (
	envFile      string
	verbose      bool
	tenantID     int64
	outputFormat string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "costctl",
	Short: "Operate the delivery order cost engine",
	Long: `costctl runs the order cost engine against the configured database.

Examples:
  costctl recalc --tenant 7 --provider ifood --from 2026-03-01 --to 2026-03-31
  costctl calculate 1842 --tenant 7
  costctl refresh-costs --tenant 7
  costctl token --tenant 7 --role Admin`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != "text" && outputFormat != "json" {
			return fmt.Errorf("unsupported output format %q (use text or json)", outputFormat)
		}
		return nil
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Int64VarP(&tenantID, "tenant", "t", 0, "tenant the command acts on")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	loaded, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	utils.InitLogger(level, cfg.LogFormat)
	utils.SetJWTSecret(cfg.JWTSecret)
}

func requireTenant() error {
	if tenantID <= 0 {
		return fmt.Errorf("--tenant is required")
	}
	return nil
}

// openServices connects to the database and wires the services. The returned
// function closes the pool.
func openServices() (*services.Container, func(), error) {
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	container := services.NewContainer(db, cfg.RecalcWorkers, cfg.ProgressRetention)
	return container, func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		utils.LogWarn("Closing database failed", map[string]interface{}{"error": err.Error()})
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "costctl version %s\n", Version)
	},
}

// Version is overridden at build time with -ldflags "-X .../cmd.Version=...".
var Version = "0.1.0"
