// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"

	"github.com/mwiater/docqa/internal/appconfig"
	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/metrics"
	"github.com/mwiater/docqa/internal/providers"
	"github.com/mwiater/docqa/internal/providers/ollama"
	"github.com/mwiater/docqa/internal/providers/openai"
	"github.com/mwiater/docqa/internal/rag"
	"github.com/mwiater/docqa/internal/vectorstore"
	"github.com/mwiater/docqa/internal/vectorstore/memory"
	"github.com/mwiater/docqa/internal/vectorstore/qdrant"
)

// Model is a backend that can both embed and generate.
type Model interface {
	providers.Embedder
	providers.Generator
}

// Components holds the configured backends. When metrics are enabled each
// backend is wrapped so calls are recorded on Metrics.
type Components struct {
	Embedder  providers.Embedder
	Generator providers.Generator
	Store     vectorstore.Store
	Metrics   *metrics.Aggregator
	cfg       appconfig.Config
}

// NewModel selects the provider named by cfg.Provider.Type.
func NewModel(cfg appconfig.Config) (Model, error) {
	switch cfg.ProviderType() {
	case appconfig.ProviderOpenAI:
		return openai.New(cfg)
	case appconfig.ProviderOllama:
		return ollama.New(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider type %q", rag.ErrInvalidConfig, cfg.Provider.Type)
	}
}

// NewStore selects the vector store named by cfg.VectorStore.Type.
func NewStore(cfg appconfig.Config) (vectorstore.Store, error) {
	collection := rag.CollectionConfig{
		Name:       cfg.VectorStore.Collection,
		VectorSize: cfg.VectorStore.VectorSize,
		Distance:   cfg.VectorStore.Distance,
	}
	if canonical, ok := appconfig.CanonicalDistance(collection.Distance); ok {
		collection.Distance = canonical
	}
	switch cfg.StoreType() {
	case appconfig.StoreQdrant:
		return qdrant.New(qdrant.Config{
			URL:        cfg.VectorStore.URL,
			APIKey:     cfg.VectorStore.APIKey,
			Collection: collection,
			Timeout:    cfg.RequestTimeout(),
		})
	case appconfig.StoreMemory:
		return memory.New(collection)
	default:
		return nil, fmt.Errorf("%w: unknown vector store type %q", rag.ErrInvalidConfig, cfg.VectorStore.Type)
	}
}

// Build constructs every backend from cfg.
func Build(cfg appconfig.Config) (*Components, error) {
	model, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	if err := checkDimension(model, cfg); err != nil {
		return nil, err
	}
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	logging.LogEvent("[SETUP] provider=%s chat=%s embedding=%s store=%s collection=%s",
		model.Name(), cfg.Provider.ResolvedChatModel(), cfg.Provider.ResolvedEmbeddingModel(), store.Name(), cfg.VectorStore.Collection)
	return Assemble(cfg, model, model, store), nil
}

// checkDimension rejects an embedder whose vectors would not fit the
// configured collection.
func checkDimension(embedder providers.Embedder, cfg appconfig.Config) error {
	if got, want := embedder.Dimension(), cfg.VectorStore.VectorSize; got != want {
		return fmt.Errorf("%w: %s embedder produces %d-dimensional vectors but vectorStore.vectorSize is %d",
			rag.ErrInvalidConfig, embedder.Name(), got, want)
	}
	return nil
}

// Assemble wraps already constructed backends, adding metrics when
// cfg.Metrics is set.
func Assemble(cfg appconfig.Config, embedder providers.Embedder, generator providers.Generator, store vectorstore.Store) *Components {
	c := &Components{Embedder: embedder, Generator: generator, Store: store, cfg: cfg}
	if cfg.Metrics {
		c.Metrics = metrics.NewAggregator()
		c.Embedder = metrics.NewEmbedder(embedder, c.Metrics)
		c.Generator = metrics.NewGenerator(generator, c.Metrics)
		c.Store = metrics.NewStore(store, c.Metrics)
	}
	return c
}

// Ingestor wires the ingestion pipeline with the configured budgets.
func (c *Components) Ingestor() (*rag.Ingestor, error) {
	return rag.NewIngestor(c.Embedder, c.Store,
		rag.WithMaxWords(c.cfg.ChunkMaxWords),
		rag.WithConcurrency(c.cfg.EmbedConcurrency),
	)
}

// Asker wires the query pipeline with the configured topK.
func (c *Components) Asker() (*rag.Asker, error) {
	return rag.NewAsker(c.Embedder, c.Store, c.Generator, c.cfg.TopK)
}
