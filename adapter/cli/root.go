// Package cli implements the billingkit command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/billingkit/internal/billing/application"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *slog.Logger

	app *App
)

// App bundles the wired orchestrator for command handlers.
type App struct {
	Orchestrator *application.Orchestrator
}

// SetApp installs the application container used by commands.
func SetApp(a *App) {
	app = a
}

// GetApp returns the installed application container.
func GetApp() *App {
	return app
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "billingkit",
	Short: "billingkit - in-app purchase orchestration",
	Long: `billingkit drives in-app purchase and subscription flows against a
billing provider: connection setup, purchase launch and resolution,
catalog and entitlement queries, and consumption of non-durable
purchases.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
