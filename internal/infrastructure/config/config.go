// Package config loads runtime settings from .env, the environment, an
// optional config file and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key: app.addr is read from
// MULTITOOL_APP_ADDR.
const EnvPrefix = "MULTITOOL"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Vector    VectorConfig    `mapstructure:"vector"`
	RAG       RAGConfig       `mapstructure:"rag"`
	Table     TableConfig     `mapstructure:"table"`
	PDF       PDFConfig       `mapstructure:"pdf"`
	Resources ResourcesConfig `mapstructure:"resources"`
	Session   SessionConfig   `mapstructure:"session"`
}

type AppConfig struct {
	Addr string `mapstructure:"addr"`
	Env  string `mapstructure:"env"`
}

// Production reports whether the app runs with production logging.
func (a AppConfig) Production() bool {
	return a.Env == "production"
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

type LLMConfig struct {
	Provider string `mapstructure:"provider"` // openai | ollama
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	ChatModel      string `mapstructure:"chat_model"`
	TableModel     string `mapstructure:"table_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type OllamaConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type VectorConfig struct {
	Backend string `mapstructure:"backend"` // memory | sqlite | chromem
	DataDir string `mapstructure:"data_dir"`
}

type RAGConfig struct {
	TopK         int `mapstructure:"top_k"`
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

type TableConfig struct {
	MaxRows     int `mapstructure:"max_rows"`
	PreviewRows int `mapstructure:"preview_rows"`
}

type PDFConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	ServiceDir string `mapstructure:"service_dir"`
}

type ResourcesConfig struct {
	Dir string `mapstructure:"dir"`
}

type SessionConfig struct {
	GreetingChat string `mapstructure:"greeting_chat"`
	GreetingPDF  string `mapstructure:"greeting_pdf"`
	GreetingCSV  string `mapstructure:"greeting_csv"`
}

var defaults = map[string]any{
	"app.addr":               ":8080",
	"app.env":                "development",
	"log.file":               "",
	"llm.provider":           "openai",
	"openai.api_key":         "",
	"openai.base_url":        "",
	"openai.chat_model":      "gpt-4o-mini",
	"openai.table_model":     "gpt-4o-mini",
	"openai.embedding_model": "text-embedding-3-small",
	"ollama.base_url":        "http://localhost:11434",
	"ollama.model":           "llama3.2",
	"ollama.embedding_model": "nomic-embed-text",
	"vector.backend":         "memory",
	"vector.data_dir":        "./data",
	"rag.top_k":              4,
	"rag.chunk_size":         1000,
	"rag.chunk_overlap":      50,
	"table.max_rows":         100000,
	"table.preview_rows":     200,
	"pdf.service_url":        "",
	"pdf.service_dir":        "",
	"resources.dir":          "",
	"session.greeting_chat":  "Hi, I'm your AI assistant. How can I help you?",
	"session.greeting_pdf":   "Upload a PDF and ask a question about it.",
	"session.greeting_csv":   "Upload a CSV and describe your analysis or visualization request.",
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"addr":           "app.addr",
	"env":            "app.env",
	"log-file":       "log.file",
	"provider":       "llm.provider",
	"vector-backend": "vector.backend",
	"data-dir":       "vector.data_dir",
	"resources":      "resources.dir",
	"pdf-service":    "pdf.service_url",
}

// Load reads configuration. flags may be nil; flags named in flagKeys
// override every other source when set. A "config" flag names an optional
// YAML/TOML/JSON config file.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	switch c.Vector.Backend {
	case "memory", "sqlite", "chromem":
	default:
		errs = append(errs, fmt.Errorf("vector.backend: unknown backend %q", c.Vector.Backend))
	}
	if c.RAG.TopK <= 0 {
		errs = append(errs, errors.New("rag.top_k must be positive"))
	}
	if c.RAG.ChunkSize <= 0 || c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		errs = append(errs, fmt.Errorf("rag.chunk_overlap (%d) must be in [0, rag.chunk_size (%d))", c.RAG.ChunkOverlap, c.RAG.ChunkSize))
	}
	return errors.Join(errs...)
}
