// internal/cli/serve.go
package docqa

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/docqa/internal/server"
)

// serveCmd implements 'serve', which exposes ingestion and chat over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ingest and chat HTTP API",
	Long:  `The 'serve' command ensures the collection exists and then serves POST /api/ingest and POST /api/chat until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		c, err := components()
		if err != nil {
			return err
		}
		ingestor, err := c.Ingestor()
		if err != nil {
			return err
		}
		asker, err := c.Asker()
		if err != nil {
			return err
		}

		srv, err := server.New(server.Options{
			Addr:           cfg.ListenAddr,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Ingestor:       ingestor,
			Asker:          asker,
			Store:          c.Store,
			Metrics:        c.Metrics,
		})
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
