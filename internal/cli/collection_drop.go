// internal/cli/collection_drop.go
package docqa

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dropConfirmed bool

// collectionDropCmd deletes the collection and every indexed point.
var collectionDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the collection and all indexed points",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if !dropConfirmed {
			return fmt.Errorf("refusing to drop collection %q without --yes", cfg.VectorStore.Collection)
		}
		c, err := components()
		if err != nil {
			return err
		}
		if err := c.Store.Drop(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s dropped collection %q\n", successfulResult("OK"), cfg.VectorStore.Collection)
		return nil
	},
}

func init() {
	collectionDropCmd.Flags().BoolVar(&dropConfirmed, "yes", false, "confirm deletion")
	collectionCmd.AddCommand(collectionDropCmd)
}
