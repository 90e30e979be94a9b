package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"document-qa/internal/models"
)

const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGoogleKey = "GOOGLE_API_KEY"

	DefaultPath = "./configs/config.yaml"
)

var ErrMissingOpenAIKey = errors.New(models.MissingOpenAIKeyMessage)

type Config struct {
	Server   ServerConfig     `yaml:"server"`
	Log      LogConfig        `yaml:"log"`
	RAG      RAGConfig        `yaml:"rag"`
	OpenAI   OpenAIConfig     `yaml:"openai"`
	EmbedLLM LLMConfig        `yaml:"embed_llm"`
	Gemini   GeminiConfig     `yaml:"gemini"`
	Sampling models.LLMConfig `yaml:"sampling"`
	Merge    MergeConfig      `yaml:"merge"`

	// Secrets are never read from the yaml file.
	OpenAIAPIKey string `yaml:"-"`
	GoogleAPIKey string `yaml:"-"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	SessionTTL  string `yaml:"session_ttl"`
	MaxSessions int    `yaml:"max_sessions"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	Separator    string `yaml:"separator"`
	TopK         int    `yaml:"top_k"`
}

type OpenAIConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// LLMConfig selects the embedding backend. Provider is "openai" or "ollama".
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Key      string `yaml:"-"`
}

type GeminiConfig struct {
	Models       []string `yaml:"models"`
	DefaultModel string   `yaml:"default_model"`
}

type MergeConfig struct {
	OutputName string `yaml:"output_name"`
	WorkDir    string `yaml:"work_dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 32,
			SessionTTL:  "1h",
			MaxSessions: 256,
		},
		Log: LogConfig{Level: "info"},
		RAG: RAGConfig{
			ChunkSize:    models.DefaultChunkSize,
			ChunkOverlap: models.DefaultChunkOverlap,
			Separator:    models.DefaultSeparator,
			TopK:         models.DefaultTopK,
		},
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
		EmbedLLM: LLMConfig{Provider: "openai"},
		Gemini: GeminiConfig{
			Models:       []string{"gemini-1.5-flash", "gemini-1.5-pro"},
			DefaultModel: "gemini-1.5-flash",
		},
		Sampling: models.DefaultLLMConfig(""),
		Merge: MergeConfig{
			OutputName: models.MergedPDFName,
			WorkDir:    "./tmp/merged",
		},
	}
}

// LoadConfig reads the yaml file at path on top of the defaults, then the
// API keys from the environment (after an optional .env file). A missing
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("Config file not found, using defaults")
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.OpenAIAPIKey = os.Getenv(EnvOpenAIKey)
	cfg.GoogleAPIKey = os.Getenv(EnvGoogleKey)
	cfg.EmbedLLM.Key = cfg.OpenAIAPIKey
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores zero values a partial yaml file may leave behind.
func (c *Config) fillDefaults() {
	d := Default()
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = d.RAG.ChunkSize
	}
	if c.RAG.Separator == "" {
		c.RAG.Separator = d.RAG.Separator
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = d.RAG.TopK
	}
	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = d.EmbedLLM.Provider
	}
	if len(c.Gemini.Models) == 0 {
		c.Gemini.Models = d.Gemini.Models
	}
	if !slices.Contains(c.Gemini.Models, c.Gemini.DefaultModel) {
		c.Gemini.DefaultModel = c.Gemini.Models[0]
	}
	if c.Merge.OutputName == "" {
		c.Merge.OutputName = d.Merge.OutputName
	}
	if c.Merge.WorkDir == "" {
		c.Merge.WorkDir = d.Merge.WorkDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = d.Server.MaxUploadMB
	}
	if c.Server.MaxSessions <= 0 {
		c.Server.MaxSessions = d.Server.MaxSessions
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = d.Server.SessionTTL
	}
}

// Validate checks values that would otherwise fail deep inside a flow.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 || c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag: chunk_overlap (%d) must be >= 0 and < chunk_size (%d)", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	if err := c.Sampling.Validate(); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}
	switch c.EmbedLLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("embed_llm: unknown provider %q", c.EmbedLLM.Provider)
	}
	return nil
}

// RequireOpenAIKey reports ErrMissingOpenAIKey when the key is absent.
func (c *Config) RequireOpenAIKey() error {
	if c == nil || c.OpenAIAPIKey == "" {
		return ErrMissingOpenAIKey
	}
	return nil
}

// OpenAISampling returns the session defaults for the PDF Q&A flow.
func (c *Config) OpenAISampling() models.LLMConfig {
	s := c.Sampling
	s.Model = c.OpenAI.Model
	return s
}

// GeminiSampling returns the session defaults for the multi-media flow.
func (c *Config) GeminiSampling() models.LLMConfig {
	s := c.Sampling
	s.Model = c.Gemini.DefaultModel
	return s
}
