// internal/cli/preview.go
package docqa

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/docqa/internal/rag"
)

// previewCmd shows the retrieval and context assembly for a question
// without calling the chat model.
var previewCmd = &cobra.Command{
	Use:   "preview <question>",
	Short: "Preview retrieval and context assembly for a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := components()
		if err != nil {
			return err
		}
		asker, err := c.Asker()
		if err != nil {
			return err
		}
		return rag.RunPreviewCommand(cmd.Context(), asker, cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
