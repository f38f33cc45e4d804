package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Scorers.
const (
	ScorerLexical  = "lexical"
	ScorerSemantic = "semantic"
	ScorerHybrid   = "hybrid"
)

// DefaultMinSimilarity is the cosine floor applied when embedding scorers leave it unset.
const DefaultMinSimilarity = 0.3

// Config holds the ragsearch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int `yaml:"max_body_bytes"`
}

// DatabaseConfig holds document store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	DocumentsFile    string   `yaml:"documents_file"` // memory driver fixture
}

// LLMConfig holds the completion provider settings.
// Any OpenAI-compatible endpoint works, including local servers.
type LLMConfig struct {
	Provider    string       `yaml:"provider"`
	BaseURL     string       `yaml:"base_url"`
	APIKey      string       `yaml:"api_key"`
	Model       string       `yaml:"model"`
	Temperature float32      `yaml:"temperature"`
	MaxTokens   int          `yaml:"max_tokens"`
	TimeoutSec  int          `yaml:"timeout_sec"`
	Budget      BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// EmbeddingConfig holds embedding settings for semantic and hybrid scoring.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	TimeoutSec          int    `yaml:"timeout_sec"`
	Concurrency         int    `yaml:"concurrency"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// SearchConfig holds retrieval and prompt settings.
type SearchConfig struct {
	TopK             int     `yaml:"top_k"`
	MinScore         float64 `yaml:"min_score"`
	MinSimilarity    float64 `yaml:"min_similarity"` // cosine floor for semantic and hybrid scorers
	Scorer           string  `yaml:"scorer"` // lexical, semantic, hybrid
	MaxQueryLength   int     `yaml:"max_query_length"`
	MaxDocumentChars int     `yaml:"max_document_chars"`
	MaxContextChars  int     `yaml:"max_context_chars"`
}

// CacheConfig holds answer and embedding cache settings (KV store drivers only).
type CacheConfig struct {
	Answers         bool `yaml:"answers"`
	AnswerTTLSec    int  `yaml:"answer_ttl_sec"`
	Embeddings      bool `yaml:"embeddings"`
	EmbeddingTTLSec int  `yaml:"embedding_ttl_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	setDefault(&c.HTTP.Port, 8080)
	setDefault(&c.HTTP.ReadTimeoutSec, 10)
	setDefault(&c.HTTP.WriteTimeoutSec, 90)
	setDefault(&c.HTTP.ShutdownSec, 10)
	setDefault(&c.HTTP.MaxBodyBytes, 64<<10)

	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	setDefault(&c.Database.ReadinessTimeout, 10)

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	setDefault(&c.LLM.MaxTokens, 512)
	setDefault(&c.LLM.TimeoutSec, 60)
	if c.LLM.Budget.Action == "" {
		c.LLM.Budget.Action = "warn"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = c.LLM.Provider
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = c.LLM.BaseURL
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.APIKey
	}
	setDefault(&c.Embedding.TimeoutSec, 30)
	setDefault(&c.Embedding.Concurrency, 4)

	setDefault(&c.Search.TopK, 4)
	if c.Search.Scorer == "" {
		c.Search.Scorer = ScorerLexical
	}
	if c.Search.MinSimilarity == 0 && c.UsesEmbeddings() {
		c.Search.MinSimilarity = DefaultMinSimilarity
	}
	setDefault(&c.Search.MaxQueryLength, 2048)
	setDefault(&c.Search.MaxDocumentChars, 2000)
	setDefault(&c.Search.MaxContextChars, 8000)

	setDefault(&c.Cache.AnswerTTLSec, 3600)
	setDefault(&c.Cache.EmbeddingTTLSec, 7*24*3600)

	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "ragsearch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
		if c.Cache.Answers || c.Cache.Embeddings {
			return fmt.Errorf("cache requires a valkey or redis database driver")
		}
	default:
		return fmt.Errorf("database.driver must be valkey, redis or memory, got %q", c.Database.Driver)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	switch c.LLM.Budget.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf("llm.budget.action must be \"warn\" or \"reject\", got %q", c.LLM.Budget.Action)
	}

	switch c.Search.Scorer {
	case ScorerLexical:
	case ScorerSemantic, ScorerHybrid:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for scorer %q", c.Search.Scorer)
		}
	default:
		return fmt.Errorf("search.scorer must be lexical, semantic or hybrid, got %q", c.Search.Scorer)
	}

	if c.Search.MinScore < 0 {
		return fmt.Errorf("search.min_score must be >= 0, got %v", c.Search.MinScore)
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity >= 1 {
		return fmt.Errorf("search.min_similarity must be in [0, 1), got %v", c.Search.MinSimilarity)
	}
	if c.Search.MaxContextChars < c.Search.MaxDocumentChars {
		return fmt.Errorf("search.max_context_chars (%d) must be >= search.max_document_chars (%d)",
			c.Search.MaxContextChars, c.Search.MaxDocumentChars)
	}
	return nil
}

// UsesEmbeddings reports whether the configured scorer needs an embedding provider.
func (c *Config) UsesEmbeddings() bool {
	return c.Search.Scorer == ScorerSemantic || c.Search.Scorer == ScorerHybrid
}

func setDefault(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
