// internal/cli/collection_info.go
package docqa

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the collection's shape and point count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := components()
		if err != nil {
			return err
		}
		info, err := c.Store.Info(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Collection:  %s\n", info.Name)
		fmt.Fprintf(out, "Backend:     %s\n", c.Store.Name())
		if !info.Exists {
			fmt.Fprintf(out, "Exists:      %s\n", failedResult("no"))
			return nil
		}
		fmt.Fprintf(out, "Exists:      %s\n", successfulResult("yes"))
		fmt.Fprintf(out, "Vector Size: %d\n", info.VectorSize)
		fmt.Fprintf(out, "Distance:    %s\n", info.Distance)
		fmt.Fprintf(out, "Points:      %d\n", info.Points)
		if info.Status != "" {
			fmt.Fprintf(out, "Status:      %s\n", info.Status)
		}
		return nil
	},
}

func init() {
	collectionCmd.AddCommand(collectionInfoCmd)
}
