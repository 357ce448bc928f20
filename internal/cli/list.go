// internal/cli/list.go
package docqa

import "github.com/spf13/cobra"

// listCmd represents the 'list' command group.
var listCmd = &cobra.Command{
	Use:         "list",
	Short:       "Group commands for listing resources",
	Annotations: map[string]string{skipConfig: "true"},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
