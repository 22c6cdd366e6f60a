// Package config loads slideboard settings.
//
// Values are resolved in order: built-in defaults, the YAML file,
// environment variables, then command-line flags (applied by the caller).
// The merged result is checked against the CUE schema in schema.cue.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Environment variables read by ApplyEnv.
const (
	EnvDB       = "SLIDEBOARD_DB"
	EnvAddr     = "SLIDEBOARD_ADDR"
	EnvAPIKey   = "OPENROUTER_API_KEY"
	EnvModel    = "OPENROUTER_MODEL"
	EnvLogLevel = "SLIDEBOARD_LOG_LEVEL"
	EnvDebounce = "SLIDEBOARD_DEBOUNCE_MS"
)

// Defaults for chat.
const (
	DefaultChatEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	DefaultChatModel    = "openrouter/free"
	DefaultChatTitle    = "SlideBoard"
	DefaultChatReferer  = "http://localhost:3000"
)

// Config is the full settings tree. Tags are shared by the YAML file and
// the CUE check.
type Config struct {
	DBPath           string `yaml:"db_path" json:"db_path"`
	SlotKey          string `yaml:"slot_key" json:"slot_key"`
	DebounceMS       int    `yaml:"debounce_ms" json:"debounce_ms"`
	LogLevel         string `yaml:"log_level" json:"log_level"`
	LogFormat        string `yaml:"log_format" json:"log_format"`
	PreviewCacheSize int    `yaml:"preview_cache_size" json:"preview_cache_size"`

	Server ServerConfig `yaml:"server" json:"server"`
	Chat   ChatConfig   `yaml:"chat" json:"chat"`
}

// ServerConfig configures `slideboard serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// ChatConfig configures the upstream chat completion service.
type ChatConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Model    string `yaml:"model" json:"model"`
	APIKey   string `yaml:"api_key" json:"api_key"`
	Referer  string `yaml:"referer" json:"referer"`
	Title    string `yaml:"title" json:"title"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:           filepath.Join(defaultDir(), "slideboard.db"),
		SlotKey:          "slideboard-storage",
		DebounceMS:       250,
		LogLevel:         "info",
		LogFormat:        "console",
		PreviewCacheSize: 256,
		Server:           ServerConfig{Addr: "127.0.0.1:8080"},
		Chat: ChatConfig{
			Endpoint: DefaultChatEndpoint,
			Model:    DefaultChatModel,
			Referer:  DefaultChatReferer,
			Title:    DefaultChatTitle,
		},
	}
}

// DefaultPath is the config file read when none is given.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "slideboard")
}

// Debounce returns DebounceMS as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Load reads path over the defaults, applies the environment and validates.
// An empty path reads DefaultPath and tolerates its absence; an explicit
// path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDB); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvAPIKey); ok {
		c.Chat.APIKey = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		c.Chat.Model = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvDebounce); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebounce, err)
		}
		c.DebounceMS = n
	}
	return nil
}

// Validate checks c against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
