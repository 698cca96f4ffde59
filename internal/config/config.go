// Package config manages CLI configuration and state persistence
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/bpassist/bpassist/internal/history"
	"github.com/bpassist/bpassist/internal/llm"
	"github.com/bpassist/bpassist/internal/redact"
)

const (
	// ConfigDirName is the name of the config directory
	ConfigDirName = ".bpassist"
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.json"
	// HistoryFileName is the file used by the file history backend
	HistoryFileName = "history.json"

	// SectionName and KeyName locate the credential in the config file.
	SectionName = "GeminiAssistant"
	KeyName     = "APIKey"
)

// Environment variables read by Load.
const (
	EnvConfigDir      = "BPASSIST_CONFIG"
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvModel          = "BPASSIST_MODEL"
	EnvBaseURL        = "BPASSIST_BASE_URL"
	EnvProvider       = "BPASSIST_PROVIDER"
	EnvTimeoutSeconds = "BPASSIST_TIMEOUT_SECONDS"
	EnvRedisAddr      = "BPASSIST_REDIS_ADDR"
	EnvLogLevel       = "BPASSIST_LOG_LEVEL"
)

// ErrUnknownKey is returned by Set for a key it does not know.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds the CLI configuration
type Config struct {
	// Verbose enables verbose logging
	Verbose bool          `json:"verbose,omitempty"`
	Gemini  GeminiConfig  `json:"GeminiAssistant"`
	History HistoryConfig `json:"History"`
	Server  ServerConfig  `json:"Server"`
	Log     LogConfig     `json:"Log"`
}

// GeminiConfig is the [GeminiAssistant] section.
type GeminiConfig struct {
	APIKey          string `json:"APIKey,omitempty"`
	// WriteAnnotation is nil when unset, which means on.
	WriteAnnotation *bool  `json:"WriteAnnotation,omitempty"`
	Provider        string `json:"Provider,omitempty"`
	Model           string `json:"Model,omitempty"`
	BaseURL         string `json:"BaseURL,omitempty"`
	APIVersion      string `json:"APIVersion,omitempty"`
	TimeoutSeconds  int    `json:"TimeoutSeconds,omitempty"`
}

// HistoryConfig selects where past requests are recorded.
type HistoryConfig struct {
	Backend       string `json:"Backend,omitempty"`
	Path          string `json:"Path,omitempty"`
	MaxEntries    int    `json:"MaxEntries,omitempty"`
	RedisAddr     string `json:"RedisAddr,omitempty"`
	RedisPassword string `json:"RedisPassword,omitempty"`
	RedisDB       int    `json:"RedisDB,omitempty"`
	RedisKey      string `json:"RedisKey,omitempty"`
	TTLSeconds    int    `json:"TTLSeconds,omitempty"`
}

// ServerConfig configures `bpassist serve`.
type ServerConfig struct {
	Addr string `json:"Addr,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `json:"Level,omitempty"`
	Format string `json:"Format,omitempty"`
}

// WriteAnnotationEnabled reports whether summaries are written back to the
// graph.
func (g GeminiConfig) WriteAnnotationEnabled() bool {
	return g.WriteAnnotation == nil || *g.WriteAnnotation
}

// Paths holds commonly used paths
type Paths struct {
	// ConfigDir is ~/.bpassist unless overridden
	ConfigDir string
	// ConfigFile is <ConfigDir>/config.json
	ConfigFile string
	// HistoryFile is <ConfigDir>/history.json
	HistoryFile string
}

// GetPaths returns the standard paths. dir overrides the config directory;
// when empty BPASSIST_CONFIG is consulted, then the home directory.
func GetPaths(dir string) (*Paths, error) {
	if dir == "" {
		dir = os.Getenv(EnvConfigDir)
	}
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ConfigDirName)
	}
	return &Paths{
		ConfigDir:   dir,
		ConfigFile:  filepath.Join(dir, ConfigFileName),
		HistoryFile: filepath.Join(dir, HistoryFileName),
	}, nil
}

// Default returns a new Config with default values
func Default() *Config {
	llmDefaults := llm.DefaultConfig()
	return &Config{
		Gemini: GeminiConfig{
			Provider:       llmDefaults.Provider,
			Model:          llmDefaults.Model,
			BaseURL:        llmDefaults.BaseURL,
			APIVersion:     llmDefaults.APIVersion,
			TimeoutSeconds: llmDefaults.TimeoutSecs,
		},
		History: HistoryConfig{
			Backend:    history.BackendFile,
			MaxEntries: history.MaxEntries,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// LoadDotEnv loads .env files into the environment. Missing files are
// ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadFile reads only the config file. A missing file yields an empty
// Config.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load layers defaults, the config file and the environment, later layers
// overriding earlier ones field by field.
func Load(paths *Paths) (*Config, error) {
	cfg := Default()

	file, err := LoadFile(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(cfg, file, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config file: %w", err)
	}

	env, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(cfg, env, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge environment: %w", err)
	}

	if cfg.History.Path == "" {
		cfg.History.Path = paths.HistoryFile
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Gemini: GeminiConfig{
			APIKey:   os.Getenv(EnvAPIKey),
			Model:    os.Getenv(EnvModel),
			BaseURL:  os.Getenv(EnvBaseURL),
			Provider: os.Getenv(EnvProvider),
		},
		Log: LogConfig{Level: os.Getenv(EnvLogLevel)},
	}
	if v := os.Getenv(EnvTimeoutSeconds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvTimeoutSeconds, v)
		}
		cfg.Gemini.TimeoutSeconds = n
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.History.Backend = history.BackendRedis
		cfg.History.RedisAddr = v
	}
	return cfg, nil
}

// SaveTo writes c to path with owner-only permissions.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Set assigns a value by "<Section>.<Key>" name, case-insensitively.
func (c *Config) Set(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		return n, nil
	}

	var err error
	switch strings.ToLower(key) {
	case "geminiassistant.apikey":
		c.Gemini.APIKey = value
	case "geminiassistant.writeannotation":
		b, perr := strconv.ParseBool(value)
		if perr != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		c.Gemini.WriteAnnotation = &b
	case "geminiassistant.provider":
		c.Gemini.Provider = value
	case "geminiassistant.model":
		c.Gemini.Model = value
	case "geminiassistant.baseurl":
		c.Gemini.BaseURL = value
	case "geminiassistant.apiversion":
		c.Gemini.APIVersion = value
	case "geminiassistant.timeoutseconds":
		c.Gemini.TimeoutSeconds, err = atoi()
	case "history.backend":
		c.History.Backend = value
	case "history.path":
		c.History.Path = value
	case "history.maxentries":
		c.History.MaxEntries, err = atoi()
	case "history.redisaddr":
		c.History.RedisAddr = value
	case "history.redispassword":
		c.History.RedisPassword = value
	case "history.redisdb":
		c.History.RedisDB, err = atoi()
	case "history.rediskey":
		c.History.RedisKey = value
	case "history.ttlseconds":
		c.History.TTLSeconds, err = atoi()
	case "server.addr":
		c.Server.Addr = value
	case "log.level":
		c.Log.Level = value
	case "log.format":
		c.Log.Format = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return err
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.Gemini.APIKey = redact.Secret(c.Gemini.APIKey)
	c.History.RedisPassword = redact.Secret(c.History.RedisPassword)
	return c
}

// LLM returns the generator configuration.
func (c *Config) LLM() llm.Config {
	return llm.Config{
		Provider:    c.Gemini.Provider,
		BaseURL:     c.Gemini.BaseURL,
		APIVersion:  c.Gemini.APIVersion,
		Model:       c.Gemini.Model,
		TimeoutSecs: c.Gemini.TimeoutSeconds,
	}
}

// HistoryOptions returns the history backend options.
func (c *Config) HistoryOptions() history.Options {
	return history.Options{
		Backend:       c.History.Backend,
		Path:          c.History.Path,
		MaxEntries:    c.History.MaxEntries,
		RedisAddr:     c.History.RedisAddr,
		RedisPassword: c.History.RedisPassword,
		RedisDB:       c.History.RedisDB,
		RedisKey:      c.History.RedisKey,
		TTL:           time.Duration(c.History.TTLSeconds) * time.Second,
	}
}
