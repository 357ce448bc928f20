// internal/cli/collection_ensure.go
package docqa

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the collection if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := components()
		if err != nil {
			return err
		}
		if err := c.Store.EnsureCollection(cmd.Context()); err != nil {
			return err
		}
		cfg, _ := getConfig()
		fmt.Fprintf(cmd.OutOrStdout(), "%s collection %q is ready (%d dims, %s)\n",
			successfulResult("OK"), cfg.VectorStore.Collection, cfg.VectorStore.VectorSize, cfg.VectorStore.Distance)
		return nil
	},
}

func init() {
	collectionCmd.AddCommand(collectionEnsureCmd)
}
