package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the docusort server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Cache     CacheConfig     `yaml:"cache"`
	Chat      ChatConfig      `yaml:"chat"`
	Storage   StorageConfig   `yaml:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// OpenAIConfig configures embeddings and chat completions. An empty APIKey
// runs the server fully offline.
type OpenAIConfig struct {
	APIKey         string       `yaml:"api_key"`
	BaseURL        string       `yaml:"base_url"`
	EmbeddingModel string       `yaml:"embedding_model"`
	ChatModel      string       `yaml:"chat_model"`
	Dimensions     int          `yaml:"dimensions"`
	RateLimitRPS   float64      `yaml:"rate_limit_rps"` // 0 = unlimited
	Budget         BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// CacheConfig holds the optional Redis connection for the embedding cache
// and budget counters.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ChatConfig selects the session store.
type ChatConfig struct {
	Driver string `yaml:"driver"` // memory, bolt (default: memory)
	Path   string `yaml:"path"`
}

// StorageConfig holds upload and artifact locations and limits.
type StorageConfig struct {
	UploadsDir   string `yaml:"uploads_dir"`
	GeneratedDir string `yaml:"generated_dir"`
	MaxUploadMB  int    `yaml:"max_upload_mb"`
	MaxFiles     int    `yaml:"max_files"`
}

// RetrievalConfig holds segmentation and search settings.
type RetrievalConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	// ChunkOverlap is a pointer so an explicit 0 (no overlap) survives
	// ApplyDefaults; only an absent key gets the default.
	ChunkOverlap *int `yaml:"chunk_overlap"`
	ChatTopK     int `yaml:"chat_top_k"`
	PnLTopK      int `yaml:"pnl_top_k"`
}

// Overlap returns the configured overlap in tokens, 0 when unset.
func (r RetrievalConfig) Overlap() int {
	if r.ChunkOverlap == nil {
		return 0
	}
	return *r.ChunkOverlap
}

// Load reads configuration from a YAML file by environment name (local, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Default returns a validated configuration without reading a file.
func Default() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 3000}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4.1-mini"
	}
	if c.OpenAI.Dimensions <= 0 {
		c.OpenAI.Dimensions = 1536
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "none"
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 7
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Chat.Driver == "" {
		c.Chat.Driver = "memory"
	}
	if c.Chat.Path == "" {
		c.Chat.Path = "data/chats.db"
	}
	if c.Storage.UploadsDir == "" {
		c.Storage.UploadsDir = "uploads"
	}
	if c.Storage.GeneratedDir == "" {
		c.Storage.GeneratedDir = "generated"
	}
	if c.Storage.MaxUploadMB <= 0 {
		c.Storage.MaxUploadMB = 25
	}
	if c.Storage.MaxFiles <= 0 {
		c.Storage.MaxFiles = 10
	}
	if c.Retrieval.ChunkSize <= 0 {
		c.Retrieval.ChunkSize = 800
	}
	if c.Retrieval.ChunkOverlap == nil {
		overlap := 200
		c.Retrieval.ChunkOverlap = &overlap
	}
	if c.Retrieval.ChatTopK <= 0 {
		c.Retrieval.ChatTopK = 6
	}
	if c.Retrieval.PnLTopK <= 0 {
		c.Retrieval.PnLTopK = 8
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.OpenAI.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("openai.budget.action must be \"warn\" or \"reject\", got %q", c.OpenAI.Budget.Action)
	}
	switch c.Cache.Driver {
	case "none":
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return errors.New("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"none\" or \"redis\", got %q", c.Cache.Driver)
	}
	switch c.Chat.Driver {
	case "memory", "bolt":
	default:
		return fmt.Errorf("chat.driver must be \"memory\" or \"bolt\", got %q", c.Chat.Driver)
	}
	overlap := c.Retrieval.Overlap()
	if overlap < 0 {
		return fmt.Errorf("retrieval.chunk_overlap must not be negative, got %d", overlap)
	}
	if overlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf(
			"retrieval.chunk_overlap (%d) must be smaller than retrieval.chunk_size (%d)",
			overlap, c.Retrieval.ChunkSize,
		)
	}
	return nil
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
