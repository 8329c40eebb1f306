package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/victorjacobs/go-izzi/config"
	"github.com/victorjacobs/go-izzi/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd runs the daemon when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "izzifast",
	Short: "Controller for iZZi ERV heat recovery ventilation units.",
	Long: `izzifast talks to an iZZi ERV unit over a serial line or TCP, keeps the
airflow at the commanded speed and exposes the unit over MQTT and HTTP.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()

		cfg, err := loadConfiguration()
		if err != nil {
			return err
		}

		return runDaemon(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./izzifast.yaml, $HOME/izzifast.yaml or /etc/izzifast/izzifast.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "More verbose output, including raw frames")
	rootCmd.PersistentFlags().BoolVarP(&noColor, "no-color", "", false, "Disable all terminal output coloration")
}

func setupUi() {
	ui.SetDebugEnabled(verbose)

	if noColor {
		pterm.DisableColor()
	}
}

func loadConfiguration() (*config.Configuration, error) {
	cfg, err := config.LoadConfiguration(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
