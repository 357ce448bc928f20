// internal/cli/ingest.go
package docqa

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	successfulResult = color.New(color.FgGreen).SprintFunc()
	failedResult     = color.New(color.FgRed).SprintFunc()
)

// ingestCmd implements 'ingest', which indexes local files the same way an
// upload to POST /api/ingest does.
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Index PDF, TXT or MD files",
	Long:  `The 'ingest' command extracts, chunks, embeds and upserts each file. Files are processed in order; a failure is reported and the remaining files are still indexed.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := components()
		if err != nil {
			return err
		}
		ingestor, err := c.Ingestor()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := c.Store.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("ensure collection: %w", err)
		}

		out := cmd.OutOrStdout()
		var failed, chunks int
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				failed++
				fmt.Fprintf(out, "%s %s: %v\n", failedResult("FAILED"), path, err)
				continue
			}
			name := filepath.Base(path)
			result, err := ingestor.Ingest(ctx, data, name, filepath.Ext(name))
			if err != nil {
				failed++
				fmt.Fprintf(out, "%s %s: %v\n", failedResult("FAILED"), path, err)
				continue
			}
			chunks += result.ChunksCreated
			fmt.Fprintf(out, "%s %s: %d chunks, %d vectors\n", successfulResult("OK"), path, result.ChunksCreated, result.VectorsUpserted)
		}

		fmt.Fprintf(out, "\nIndexed %d of %d files (%d chunks).\n", len(args)-failed, len(args), chunks)
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
