// internal/cli/ask.go
package docqa

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/docqa/internal/rag"
)

var askJSON bool

// askCmd implements 'ask', a one-shot question against the index.
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return rag.ErrInvalidQuestion
		}

		c, err := components()
		if err != nil {
			return err
		}
		asker, err := c.Asker()
		if err != nil {
			return err
		}
		answer, err := asker.Ask(cmd.Context(), question)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if askJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(answer)
		}
		fmt.Fprintln(out, answer.Answer)
		if len(answer.Sources) > 0 {
			fmt.Fprintf(out, "\nSources: %s\n", strings.Join(answer.Sources, ", "))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}
