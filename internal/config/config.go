package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultBaseURL = "https://sbpapi-production.up.railway.app"
	DefaultKey     = "sbp_admin_token"

	// PathEnvVar overrides the config file location.
	PathEnvVar = "SBP_CONFIG"
	envPrefix  = "SBP_"
)

type Config struct {
	API   APIConfig   `koanf:"api"`
	Token TokenConfig `koanf:"token"`
	Redis RedisConfig `koanf:"redis"`
	Log   LogConfig   `koanf:"log"`
	Mock  MockConfig  `koanf:"mock"`
}

type APIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type TokenConfig struct {
	Store               string `koanf:"store"`
	Key                 string `koanf:"key"`
	File                string `koanf:"file"`
	BadgerPath          string `koanf:"badger_path"`
	BadgerEncryptionKey string `koanf:"badger_encryption_key"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type MockConfig struct {
	Port          string        `koanf:"port"`
	JWTSecret     string        `koanf:"jwt_secret"`
	TokenTTL      time.Duration `koanf:"token_ttl"`
	AdminEmail    string        `koanf:"admin_email"`
	AdminPassword string        `koanf:"admin_password"`
	RateLimit     int           `koanf:"rate_limit"`
	RedisEnabled  bool          `koanf:"redis_enabled"`
}

func defaultConfig() *Config {
	dir := configDir()
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Token: TokenConfig{
			Store:      "file",
			Key:        DefaultKey,
			File:       filepath.Join(dir, "token"),
			BadgerPath: filepath.Join(dir, "badger"),
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Mock: MockConfig{
			Port:          "8080",
			JWTSecret:     "dev-secret-change-me",
			TokenTTL:      24 * time.Hour,
			AdminEmail:    "admin@sbp.local",
			AdminPassword: "admin123",
			RateLimit:     10,
		},
	}
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "sbp-admin")
	}
	return ".sbp-admin"
}

// Load layers defaults, an optional YAML file and SBP_* environment variables,
// in increasing order of precedence. A .env file in the working directory is
// imported into the environment first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to read .env file", "error", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps SBP_API_BASE_URL to api.base_url. Only the first underscore
// after the prefix separates the section.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return ""
	}
	return section + "." + rest
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	candidates := []string{
		"sbp-admin.yaml",
		"sbp-admin.yml",
		filepath.Join(configDir(), "config.yaml"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	switch c.Token.Store {
	case "file", "redis", "badger", "memory":
	default:
		return fmt.Errorf("unknown token.store %q", c.Token.Store)
	}
	if c.Token.Key == "" {
		return errors.New("token.key is required")
	}
	if k := len(c.Token.BadgerEncryptionKey); k != 0 && k != 16 && k != 24 && k != 32 {
		return errors.New("token.badger_encryption_key must be 16, 24 or 32 bytes")
	}
	return nil
}

// SlogLevel converts the configured level name.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds the process logger; log.format "text" selects the text handler.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Log.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
