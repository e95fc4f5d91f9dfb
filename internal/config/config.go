package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains the HTTP listener settings.
type Server struct {
	Bind     string `toml:"bind"`
	LockFile string `toml:"lock_file"`
	// DevUser is assumed when a request carries no auth header. Empty
	// rejects anonymous requests.
	DevUser string `toml:"dev_user"`
}

// Storage selects the recipe and history database.
type Storage struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	DSN    string `toml:"dsn"`
}

// Kitchen tunes the live cooking sessions kept in memory.
type Kitchen struct {
	IdleTimeoutMinutes     int `toml:"idle_timeout_minutes"`
	CleanupIntervalMinutes int `toml:"cleanup_interval_minutes"`
	SubscriberBuffer       int `toml:"subscriber_buffer"`
}

// Notifications configures ntfy push alerts for finished timers.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// LLM contains the recipe extraction endpoint settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	VisionModel    string `toml:"vision_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxPageBytes   int    `toml:"max_page_bytes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for Gustalya.
type Config struct {
	Server        Server        `toml:"server"`
	Storage       Storage       `toml:"storage"`
	Kitchen       Kitchen       `toml:"kitchen"`
	Notifications Notifications `toml:"notifications"`
	LLM           LLM           `toml:"llm"`
	Logging       Logging       `toml:"logging"`
}

const (
	envLLMKey     = "GUSTALYA_LLM_API_KEY"
	envStorageDSN = "GUSTALYA_STORAGE_DSN"
)

// Default returns a configuration usable without any file.
func Default() Config {
	return Config{
		Server: Server{
			Bind:     "127.0.0.1:8080",
			LockFile: "~/.local/state/gustalya/server.lock",
			DevUser:  "local",
		},
		Storage: Storage{
			Driver: "sqlite",
			DSN:    "~/.local/share/gustalya/gustalya.db",
		},
		Kitchen: Kitchen{
			IdleTimeoutMinutes:     360,
			CleanupIntervalMinutes: 5,
			SubscriberBuffer:       16,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
		LLM: LLM{
			BaseURL:        "https://openrouter.ai/api/v1/chat/completions",
			Model:          "google/gemini-2.5-flash",
			TimeoutSeconds: 60,
			MaxPageBytes:   2 << 20,
		},
		Logging: Logging{
			Format: "auto",
			Level:  "info",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/gustalya/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. It also reports the resolved path and whether it exists.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(envLLMKey)); v != "" {
		c.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envStorageDSN)); v != "" {
		c.Storage.DSN = v
	}
}

func (c *Config) normalize() error {
	c.Server.DevUser = strings.TrimSpace(c.Server.DevUser)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.VisionModel = strings.TrimSpace(c.LLM.VisionModel)
	if c.LLM.VisionModel == "" {
		c.LLM.VisionModel = c.LLM.Model
	}

	if c.Storage.Driver == "sqlite" && c.Storage.DSN != ":memory:" {
		dsn, err := ExpandPath(c.Storage.DSN)
		if err != nil {
			return err
		}
		c.Storage.DSN = dsn
	}
	if c.Server.LockFile != "" {
		lock, err := ExpandPath(c.Server.LockFile)
		if err != nil {
			return err
		}
		c.Server.LockFile = lock
	}
	if c.Logging.File != "" {
		file, err := ExpandPath(c.Logging.File)
		if err != nil {
			return err
		}
		c.Logging.File = file
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver: unsupported value %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		return errors.New("storage.dsn must be set")
	}
	if c.Kitchen.IdleTimeoutMinutes <= 0 {
		return errors.New("kitchen.idle_timeout_minutes must be positive")
	}
	if c.Kitchen.CleanupIntervalMinutes <= 0 {
		return errors.New("kitchen.cleanup_interval_minutes must be positive")
	}
	if c.Kitchen.SubscriberBuffer <= 0 {
		return errors.New("kitchen.subscriber_buffer must be positive")
	}
	if c.Notifications.NtfyTopic != "" &&
		!strings.HasPrefix(c.Notifications.NtfyTopic, "http://") &&
		!strings.HasPrefix(c.Notifications.NtfyTopic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a URL, got %q", c.Notifications.NtfyTopic)
	}
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// IdleTimeout is how long an untouched kitchen is kept.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Kitchen.IdleTimeoutMinutes) * time.Minute
}

// CleanupInterval is how often idle kitchens are collected.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Kitchen.CleanupIntervalMinutes) * time.Minute
}

// NtfyTimeout bounds a single push request.
func (c *Config) NtfyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
// It refuses to overwrite an existing file.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %q already exists", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
