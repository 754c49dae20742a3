package config

import "path/filepath"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:              8000,
		DataDir:           ".campusguide",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		SearchResults:     5,
		Ingestion: IngestionConfig{
			Workers: 2,
			Retries: 3,
		},
		Corpus: CorpusConfig{
			Dir:     "university_documents",
			Include: []string{"**/*.txt", "**/*.md"},
		},
	}
}

// DatabasePath is the SQLite file location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "campusguide.db")
}

// IndexPath is the persisted vector index location under the data directory.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index", "knowledge.gob.gz")
}
