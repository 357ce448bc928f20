// internal/cli/show_config.go
package docqa

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/docqa/internal/appconfig"
)

var dumpConfig bool

// showConfigCmd prints the merged configuration with secrets masked.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings after the config file, environment variables and flags are merged. API keys are masked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if dumpConfig {
			_, err := pp.Fprintln(out, cfg.Masked())
			return err
		}
		appconfig.ShowConfig(out, cfg.ConfigPath, &cfg)
		return nil
	},
}

func init() {
	showConfigCmd.Flags().BoolVar(&dumpConfig, "dump", false, "pretty-print the full config struct")
	showCmd.AddCommand(showConfigCmd)
}
