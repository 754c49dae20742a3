package cmd

import (
	"fmt"
	"os"

	"github.com/OfonoA/campusGuide1/internal/config"
	"github.com/OfonoA/campusGuide1/internal/embeddings"
	"github.com/OfonoA/campusGuide1/internal/vectordb"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedder creates an embeddings.Embedder based on config.
func createEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, cfg.OllamaBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
}

// createIndex builds the single vector index handle for this process.
func createIndex(cfg *config.Config) (*vectordb.Index, error) {
	embedder, err := createEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	return vectordb.New(embedder, cfg.IndexPath()), nil
}
