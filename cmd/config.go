package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/victorjacobs/go-izzi/config"
	"github.com/victorjacobs/go-izzi/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration related commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates the current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()

		// note: config file path parameter comes from the root command (-c)
		cfg, err := config.LoadConfiguration(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			ui.Error("Validation failed: %v", err)
			return err
		}

		pterm.Success.Println("Config looks good! :)")
		return nil
	},
}

func init() {
	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
}
