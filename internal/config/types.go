package config

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

const (
	ProviderOpenAI EmbeddingProvider = "openai"
	ProviderOllama EmbeddingProvider = "ollama"
)

// Config is the top-level campusguide configuration, corresponding to
// .campusguide.yml.
type Config struct {
	Port              int               `yaml:"port" koanf:"port"`
	DataDir           string            `yaml:"data_dir" koanf:"data_dir"`
	EmbeddingProvider EmbeddingProvider `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string            `yaml:"embedding_model" koanf:"embedding_model"`
	OllamaBaseURL     string            `yaml:"ollama_base_url" koanf:"ollama_base_url"`
	SearchResults     int               `yaml:"search_results" koanf:"search_results"`
	Ingestion         IngestionConfig   `yaml:"ingestion" koanf:"ingestion"`
	Corpus            CorpusConfig      `yaml:"corpus" koanf:"corpus"`
	AllowAllOrigins   bool              `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// IngestionConfig tunes the background reinforcement worker.
type IngestionConfig struct {
	Workers int `yaml:"workers" koanf:"workers"`
	Retries int `yaml:"retries" koanf:"retries"`
}

// CorpusConfig holds bulk document loading settings.
type CorpusConfig struct {
	Dir     string   `yaml:"dir" koanf:"dir"`
	Include []string `yaml:"include" koanf:"include"`
}
