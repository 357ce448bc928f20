package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary. Secrets are masked.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults and environment).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}
	if cfg == nil {
		d := Defaults()
		cfg = &d
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Listen Address:    %s\n", cfg.ListenAddr)
	fmt.Fprintf(out, "  Debug:             %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:          %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Request Timeout:   %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Max Upload Bytes:  %d\n", cfg.MaxUploadBytes)
	fmt.Fprintf(out, "  Chunk Max Words:   %d\n", cfg.ChunkMaxWords)
	fmt.Fprintf(out, "  Embed Concurrency: %d\n", cfg.EmbedConcurrency)
	fmt.Fprintf(out, "  Top K:             %d\n", cfg.TopK)
	fmt.Fprintf(out, "  Metrics:           %v\n", cfg.Metrics)

	fmt.Fprintln(out, "\nProvider:")
	fmt.Fprintf(out, "  Type:              %s\n", cfg.ProviderType())
	fmt.Fprintf(out, "  Base URL:          %s\n", cfg.Provider.ResolvedBaseURL())
	fmt.Fprintf(out, "  API Key:           %s\n", MaskSecret(cfg.Provider.APIKey))
	fmt.Fprintf(out, "  Chat Model:        %s\n", cfg.Provider.ResolvedChatModel())
	fmt.Fprintf(out, "  Embedding Model:   %s\n", cfg.Provider.ResolvedEmbeddingModel())
	fmt.Fprintf(out, "  Temperature:       %.2f\n", cfg.Provider.Temperature)
	fmt.Fprintf(out, "  Max Retries:       %d\n", cfg.Provider.MaxRetries)

	fmt.Fprintln(out, "\nVector Store:")
	fmt.Fprintf(out, "  Type:              %s\n", cfg.StoreType())
	if cfg.StoreType() == StoreQdrant {
		fmt.Fprintf(out, "  URL:               %s\n", cfg.VectorStore.URL)
		fmt.Fprintf(out, "  API Key:           %s\n", MaskSecret(cfg.VectorStore.APIKey))
	}
	fmt.Fprintf(out, "  Collection:        %s\n", cfg.VectorStore.Collection)
	fmt.Fprintf(out, "  Vector Size:       %d\n", cfg.VectorStore.VectorSize)
	fmt.Fprintf(out, "  Distance:          %s\n", cfg.VectorStore.Distance)
}

// MaskSecret keeps only enough of a key to recognise it.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:3] + "****" + s[len(s)-4:]
	}
}

// Masked returns a copy of cfg with secrets masked, for dumps.
func (c Config) Masked() Config {
	c.Provider.APIKey = MaskSecret(c.Provider.APIKey)
	c.VectorStore.APIKey = MaskSecret(c.VectorStore.APIKey)
	return c
}
