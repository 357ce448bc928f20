// internal/cli/config_init.go
package docqa

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/docqa/internal/appconfig"
)

var forceConfig bool

// configInitCmd writes a YAML config populated with the defaults.
var configInitCmd = &cobra.Command{
	Use:         "init [path]",
	Short:       "Write a default config file",
	Long:        fmt.Sprintf(`The 'init' subcommand writes the default configuration as YAML to path (default %s). Existing files are kept unless --force is set.`, appconfig.DefaultConfigPath),
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := appconfig.DefaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := appconfig.WriteTemplate(path, forceConfig); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
