// Package config provides configuration loading and structs for the Doc Chat backend.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Docs      DocsConfig      `yaml:"docs"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Provider  ProviderConfig  `yaml:"provider"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Session   SessionConfig   `yaml:"session"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds paths for the database and the vector index snapshot.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexPath    string `yaml:"index_path"`
}

// DocsConfig holds ingestion settings for the documents folder.
type DocsConfig struct {
	Folder string `yaml:"folder"`
	// MaxChars caps the total number of extracted characters per ingestion run.
	// Loading stops early once appending another blob would exceed it.
	MaxChars int  `yaml:"max_chars"`
	Watch    bool `yaml:"watch"`
}

// ChunkingConfig holds text splitting parameters.
// Profile "light" (1000/100) suits incremental ingestion; "bulk" (5000/100) suits
// large corpora. Explicit chunk_size/chunk_overlap override the profile.
type ChunkingConfig struct {
	Profile      string `yaml:"profile"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// ProviderConfig holds settings for the hosted embedding/generation provider.
// The API key is never stored in the config file; it is read from the environment
// variable named by APIKeyEnv (a .env file is honored when present).
type ProviderConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Dimensions     int     `yaml:"dimensions"`
	ChatModel      string  `yaml:"chat_model"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
}

// RetrievalConfig holds similarity search settings.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
	// LatestOnly searches with only the newest question instead of the full
	// transcript. Off by default to match the observed contract, where the whole
	// transcript is the similarity query.
	LatestOnly bool `yaml:"latest_only"`
}

// SessionConfig bounds the in-memory session transcript store.
type SessionConfig struct {
	TTLMinutes  int `yaml:"ttl_minutes"`
	MaxSessions int `yaml:"max_sessions"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	cfg.Docs.Folder = expandPath(cfg.Docs.Folder, configDir)

	return &cfg, nil
}

// APIKey resolves the provider API key from the environment. A .env file in the
// working directory is loaded first when present. Returns an error when the
// variable is unset or empty; callers must treat that as fatal at startup.
func (p *ProviderConfig) APIKey() (string, error) {
	_ = godotenv.Load()
	key := os.Getenv(p.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s not set in environment", p.APIKeyEnv)
	}
	return key, nil
}

// expandPath converts a path to absolute. Relative paths are resolved against configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Join(configDir, path)
}
