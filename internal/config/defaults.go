package config

// Chunking profiles observed in ingestion: light for the standard docs folder,
// bulk for large corpora.
const (
	ProfileLight = "light"
	ProfileBulk  = "bulk"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "data/docchat.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "data/vector_index"
	}
	if cfg.Docs.Folder == "" {
		cfg.Docs.Folder = "docs"
	}
	if cfg.Docs.MaxChars == 0 {
		cfg.Docs.MaxChars = 1_000_000
	}
	if cfg.Chunking.Profile == "" {
		cfg.Chunking.Profile = ProfileLight
	}
	if cfg.Chunking.ChunkSize == 0 {
		switch cfg.Chunking.Profile {
		case ProfileBulk:
			cfg.Chunking.ChunkSize = 5000
		default:
			cfg.Chunking.ChunkSize = 1000
		}
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 100
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = "OPENAI_SECRET_KEY"
	}
	if cfg.Provider.EmbeddingModel == "" {
		cfg.Provider.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.Provider.Dimensions == 0 {
		cfg.Provider.Dimensions = 1536
	}
	if cfg.Provider.ChatModel == "" {
		cfg.Provider.ChatModel = "gpt-3.5-turbo"
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 60
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = 5
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 60
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 1000
	}
}
