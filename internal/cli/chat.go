// internal/cli/chat.go
package docqa

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mwiater/docqa/internal/tui"
)

var runChatUI = tui.Run

// chatCmd represents the 'chat' command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat over the indexed documents",
	Long:  `The 'chat' command starts a terminal chat session. Every question is answered from the indexed documents only.`,
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
		asker, err := c.Asker()
		if err != nil {
			return err
		}

		// The UI owns the terminal; logs go to the file only.
		f, err := tea.LogToFile(cfg.LogFilePath(), "docqa")
		if err != nil {
			return err
		}
		defer f.Close()

		return runChatUI(cmd.Context(), asker, tui.Session{
			Provider:   cfg.ProviderType(),
			ChatModel:  cfg.Provider.ResolvedChatModel(),
			Store:      c.Store.Name(),
			Collection: cfg.VectorStore.Collection,
			TopK:       cfg.TopK,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
