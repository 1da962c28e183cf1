package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. LAZYTODO_DB_PATH.
const EnvPrefix = "LAZYTODO"

const (
	appDir        = "lazytodo"
	defaultURL    = "https://dummyjson.com/todos"
	defaultPort   = 8080
	defaultWorker = 4
)

type Config struct {
	DBPath        string `json:"db_path" mapstructure:"db_path"`
	WebEnabled    bool   `json:"web_enabled" mapstructure:"web_enabled"`
	WebPort       int    `json:"web_port" mapstructure:"web_port"`
	RemoteURL     string `json:"remote_url" mapstructure:"remote_url"`
	RemoteTimeout string `json:"remote_timeout" mapstructure:"remote_timeout"`
	Workers       int    `json:"workers" mapstructure:"workers"`
	LogLevel      string `json:"log_level" mapstructure:"log_level"`
	LogFile       string `json:"log_file" mapstructure:"log_file"`
}

func Default() Config {
	return Config{
		WebPort:       defaultPort,
		RemoteURL:     defaultURL,
		RemoteTimeout: "15s",
		Workers:       defaultWorker,
		LogLevel:      "info",
	}
}

// Timeout parses RemoteTimeout, falling back to 15s when it is unset or
// invalid.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RemoteTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appDir, "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads the JSON config at path and applies LAZYTODO_* environment
// overrides. A missing file yields the defaults plus any overrides.
func Load(path string) (Config, error) {
	v := newViper()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// defaults register every key so AutomaticEnv applies during Unmarshal
	def := Default()
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("web_enabled", def.WebEnabled)
	v.SetDefault("web_port", def.WebPort)
	v.SetDefault("remote_url", def.RemoteURL)
	v.SetDefault("remote_timeout", def.RemoteTimeout)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	return v
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
