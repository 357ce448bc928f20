// internal/cli/config.go
package docqa

import "github.com/spf13/cobra"

// configCmd groups configuration helpers.
var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Group commands for managing configuration files",
	Annotations: map[string]string{skipConfig: "true"},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
