// internal/cli/collection.go
package docqa

import "github.com/spf13/cobra"

// collectionCmd groups commands that manage the vector collection.
var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Group commands for managing the vector collection",
	Long:  `The 'collection' command groups subcommands that create, inspect and drop the configured collection.`,
}

func init() {
	rootCmd.AddCommand(collectionCmd)
}
