// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is where the CLI looks for a config file when --config is not set.
	DefaultConfigPath = "config/config.yaml"
	// EnvPrefix namespaces the automatic environment overrides (DOCQA_TOPK, DOCQA_PROVIDER_APIKEY, ...).
	EnvPrefix = "DOCQA"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	StoreQdrant    = "qdrant"
	StoreMemory    = "memory"

	defaultRequestTimeout = 60 * time.Second
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultOllamaBaseURL  = "http://localhost:11434"
)

var defaultModels = map[string]struct{ chat, embedding string }{
	ProviderOpenAI: {chat: "gpt-4o-mini", embedding: "text-embedding-3-large"},
	ProviderOllama: {chat: "llama3.2", embedding: "nomic-embed-text"},
}

var distances = map[string]string{
	"cosine":    "Cosine",
	"dot":       "Dot",
	"euclid":    "Euclid",
	"euclidean": "Euclid",
	"manhattan": "Manhattan",
}

// Config represents the top-level application configuration.
type Config struct {
	ListenAddr       string            `json:"listenAddr" yaml:"listenAddr" mapstructure:"listenAddr"`
	Debug            bool              `json:"debug" yaml:"debug" mapstructure:"debug"`
	LogFile          string            `json:"logFile,omitempty" yaml:"logFile" mapstructure:"logFile"`
	TimeoutSeconds   int               `json:"timeout,omitempty" yaml:"timeout" mapstructure:"timeout"`
	MaxUploadBytes   int64             `json:"maxUploadBytes" yaml:"maxUploadBytes" mapstructure:"maxUploadBytes"`
	ChunkMaxWords    int               `json:"chunkMaxWords" yaml:"chunkMaxWords" mapstructure:"chunkMaxWords"`
	EmbedConcurrency int               `json:"embedConcurrency" yaml:"embedConcurrency" mapstructure:"embedConcurrency"`
	TopK             int               `json:"topK" yaml:"topK" mapstructure:"topK"`
	Metrics          bool              `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Provider         ProviderConfig    `json:"provider" yaml:"provider" mapstructure:"provider"`
	VectorStore      VectorStoreConfig `json:"vectorStore" yaml:"vectorStore" mapstructure:"vectorStore"`
	ConfigPath       string            `json:"-" yaml:"-" mapstructure:"-"`
}

// ProviderConfig selects and configures the embedding and generation backend.
type ProviderConfig struct {
	Type           string  `json:"type" yaml:"type" mapstructure:"type"`
	BaseURL        string  `json:"baseUrl,omitempty" yaml:"baseUrl" mapstructure:"baseUrl"`
	APIKey         string  `json:"apiKey,omitempty" yaml:"apiKey" mapstructure:"apiKey"`
	ChatModel      string  `json:"chatModel,omitempty" yaml:"chatModel" mapstructure:"chatModel"`
	EmbeddingModel string  `json:"embeddingModel,omitempty" yaml:"embeddingModel" mapstructure:"embeddingModel"`
	Temperature    float32 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	MaxRetries     int     `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
}

// VectorStoreConfig selects and configures the vector index.
type VectorStoreConfig struct {
	Type       string `json:"type" yaml:"type" mapstructure:"type"`
	URL        string `json:"url,omitempty" yaml:"url" mapstructure:"url"`
	APIKey     string `json:"apiKey,omitempty" yaml:"apiKey" mapstructure:"apiKey"`
	Collection string `json:"collection" yaml:"collection" mapstructure:"collection"`
	VectorSize int    `json:"vectorSize" yaml:"vectorSize" mapstructure:"vectorSize"`
	Distance   string `json:"distance" yaml:"distance" mapstructure:"distance"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		ListenAddr:       ":8080",
		LogFile:          "docqa.log",
		TimeoutSeconds:   int(defaultRequestTimeout.Seconds()),
		MaxUploadBytes:   200_000_000,
		ChunkMaxWords:    350,
		EmbedConcurrency: 4,
		TopK:             5,
		Metrics:          true,
		Provider: ProviderConfig{
			Type:        ProviderOpenAI,
			Temperature: 0.2,
		},
		VectorStore: VectorStoreConfig{
			Type:       StoreQdrant,
			URL:        "http://localhost:6333",
			Collection: "company_knowledge",
			VectorSize: 3072,
			Distance:   "Cosine",
		},
	}
}

// RequestTimeout returns the timeout duration for outbound HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "docqa.log"
}

// ResolvedBaseURL returns the configured base URL or the provider's default.
func (p ProviderConfig) ResolvedBaseURL() string {
	if u := strings.TrimSpace(p.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	if normalizeType(p.Type) == ProviderOllama {
		return defaultOllamaBaseURL
	}
	return defaultOpenAIBaseURL
}

func (p ProviderConfig) ResolvedChatModel() string {
	if m := strings.TrimSpace(p.ChatModel); m != "" {
		return m
	}
	return defaultModels[normalizeType(p.Type)].chat
}

func (p ProviderConfig) ResolvedEmbeddingModel() string {
	if m := strings.TrimSpace(p.EmbeddingModel); m != "" {
		return m
	}
	return defaultModels[normalizeType(p.Type)].embedding
}

// CanonicalDistance maps a case-insensitive distance name to the form the
// index expects. The second result is false for unknown names.
func CanonicalDistance(name string) (string, bool) {
	d, ok := distances[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Validate fails fast on values that would otherwise only surface on the
// first request.
func (c Config) Validate() error {
	var errs []error
	if c.ChunkMaxWords <= 0 {
		errs = append(errs, fmt.Errorf("chunkMaxWords must be greater than zero, got %d", c.ChunkMaxWords))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("topK must be greater than zero, got %d", c.TopK))
	}
	if c.EmbedConcurrency < 1 {
		errs = append(errs, fmt.Errorf("embedConcurrency must be at least 1, got %d", c.EmbedConcurrency))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("maxUploadBytes must be greater than zero, got %d", c.MaxUploadBytes))
	}
	if c.Provider.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("provider.maxRetries must not be negative, got %d", c.Provider.MaxRetries))
	}
	switch normalizeType(c.Provider.Type) {
	case ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown provider.type %q (expected %s or %s)", c.Provider.Type, ProviderOpenAI, ProviderOllama))
	}
	switch normalizeType(c.VectorStore.Type) {
	case StoreQdrant:
		if strings.TrimSpace(c.VectorStore.URL) == "" {
			errs = append(errs, errors.New("vectorStore.url is required for qdrant"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown vectorStore.type %q (expected %s or %s)", c.VectorStore.Type, StoreQdrant, StoreMemory))
	}
	if strings.TrimSpace(c.VectorStore.Collection) == "" {
		errs = append(errs, errors.New("vectorStore.collection is required"))
	}
	if c.VectorStore.VectorSize <= 0 {
		errs = append(errs, fmt.Errorf("vectorStore.vectorSize must be greater than zero, got %d", c.VectorStore.VectorSize))
	}
	if _, ok := CanonicalDistance(c.VectorStore.Distance); !ok {
		errs = append(errs, fmt.Errorf("unknown vectorStore.distance %q", c.VectorStore.Distance))
	}
	return errors.Join(errs...)
}

// ProviderType returns the normalized provider type.
func (c Config) ProviderType() string { return normalizeType(c.Provider.Type) }

// StoreType returns the normalized vector store type.
func (c Config) StoreType() string { return normalizeType(c.VectorStore.Type) }

func normalizeType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// envAliases maps config keys to the unprefixed variable names commonly used
// for these services.
var envAliases = map[string][]string{
	"provider.apiKey":         {"OPENAI_API_KEY"},
	"provider.baseUrl":        {"OPENAI_BASE_URL"},
	"provider.chatModel":      {"OPENAI_MODEL"},
	"provider.embeddingModel": {"OPENAI_EMBEDDING_MODEL"},
	"vectorStore.url":         {"QDRANT_URL"},
	"vectorStore.collection":  {"QDRANT_COLLECTION"},
	"vectorStore.apiKey":      {"QDRANT_API_KEY"},
}

// Register installs defaults and environment bindings on v. Prefixed
// variables (DOCQA_PROVIDER_APIKEY) win over the unprefixed aliases.
func Register(v *viper.Viper) {
	d := Defaults()
	defaults := map[string]any{
		"listenAddr":              d.ListenAddr,
		"debug":                   d.Debug,
		"logFile":                 d.LogFile,
		"timeout":                 d.TimeoutSeconds,
		"maxUploadBytes":          d.MaxUploadBytes,
		"chunkMaxWords":           d.ChunkMaxWords,
		"embedConcurrency":        d.EmbedConcurrency,
		"topK":                    d.TopK,
		"metrics":                 d.Metrics,
		"provider.type":           d.Provider.Type,
		"provider.baseUrl":        d.Provider.BaseURL,
		"provider.apiKey":         d.Provider.APIKey,
		"provider.chatModel":      d.Provider.ChatModel,
		"provider.embeddingModel": d.Provider.EmbeddingModel,
		"provider.temperature":    d.Provider.Temperature,
		"provider.maxRetries":     d.Provider.MaxRetries,
		"vectorStore.type":        d.VectorStore.Type,
		"vectorStore.url":         d.VectorStore.URL,
		"vectorStore.apiKey":      d.VectorStore.APIKey,
		"vectorStore.collection":  d.VectorStore.Collection,
		"vectorStore.vectorSize":  d.VectorStore.VectorSize,
		"vectorStore.distance":    d.VectorStore.Distance,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{prefixedEnvName(key)}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
}

func prefixedEnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Decode materializes the merged viper state into a validated Config.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if canonical, ok := CanonicalDistance(cfg.VectorStore.Distance); ok {
		cfg.VectorStore.Distance = canonical
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration at path (JSON or YAML by extension), applying
// defaults and environment overrides. A missing file is only an error when
// the caller asked for a specific path.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so flags already
// bound to v take precedence over the file and environment.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	Register(v)

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	v.SetConfigFile(path)
	loaded, err := ReadConfig(v, explicit)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return Config{}, err
	}
	if loaded {
		cfg.ConfigPath = path
	}
	return cfg, nil
}

// ReadConfig reads the file set on v and reports whether one was loaded. A
// missing file is tolerated unless required is true.
func ReadConfig(v *viper.Viper, required bool) (bool, error) {
	err := v.ReadInConfig()
	if err == nil {
		return true, nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		if required {
			return false, fmt.Errorf("no configuration file found at %q", v.ConfigFileUsed())
		}
		return false, nil
	}
	return false, fmt.Errorf("could not read config file %q: %w", v.ConfigFileUsed(), err)
}
