// internal/cli/root.go
package docqa

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/docqa/internal/appconfig"
	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/providerfactory"
)

// skipConfig marks commands that must run without a valid configuration.
const skipConfig = "skipConfig"

var (
	cfgFile       string
	currentConfig *appconfig.Config

	buildComponents = providerfactory.Build
)

var rootCmd = &cobra.Command{
	Use:          "docqa",
	Short:        "docqa: grounded question answering over your own documents",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}

		// flags > environment > config file > defaults
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return err
		}
		logging.SetDebug(cfg.Debug)
		if cfg.ConfigPath != "" {
			logging.LogDebug("loaded config from %s", cfg.ConfigPath)
		}
		return nil
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so in-flight requests and the server shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", fmt.Sprintf("config file (default %s)", appconfig.DefaultConfigPath))

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "log file path")
	rootCmd.PersistentFlags().String("listen", "", "HTTP listen address for serve")

	// Flags override config only when set.
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("listenAddr", rootCmd.PersistentFlags().Lookup("listen"))
}

// loadConfig merges the config file, environment and flags into a validated
// Config. An explicit --config must exist; the default path is optional.
func loadConfig(cmd *cobra.Command) (appconfig.Config, error) {
	path := ""
	if cmd.Flags().Changed("config") {
		path = cfgFile
	}
	return appconfig.LoadWith(viper.GetViper(), path)
}

// getConfig returns the configuration loaded for the running command.
func getConfig() (appconfig.Config, error) {
	if currentConfig == nil {
		return appconfig.Config{}, fmt.Errorf("configuration is not loaded")
	}
	return *currentConfig, nil
}

// components builds the configured backends for the running command.
func components() (*providerfactory.Components, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return buildComponents(cfg)
}
