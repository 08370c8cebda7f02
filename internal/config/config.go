package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig     `json:"server"`
	Explorer  ExplorerConfig   `json:"explorer"`
	Assistant AssistantConfig  `json:"assistant"`
	Jobs      JobsConfig       `json:"jobs"`
	History   HistoryConfig    `json:"history"`
	Slack     SlackConfig      `json:"slack"`
	Tasks     types.TaskConfig `json:"tasks"`
}

type ServerConfig struct {
	Port         string `json:"port"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

type ExplorerConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Timeout string `json:"timeout"`
}

type AssistantConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type JobsConfig struct {
	MaxConcurrent int    `json:"max_concurrent"`
	DefaultShots  int    `json:"default_shots"`
	MaxShots      int    `json:"max_shots"`
	Retention     string `json:"retention"`
}

type HistoryConfig struct {
	Path    string `json:"path"`
	Enabled bool   `json:"enabled"`
}

type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// ProvidersFile is the shape of config/providers.yaml.
type ProvidersFile struct {
	Providers []types.Provider `yaml:"providers"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if err := godotenv.Load(); err != nil {
			if err := godotenv.Load(".env.local"); err != nil {
				fmt.Printf("No .env or .env.local file found. Using environment variables.\n")
			}
		}

		return fromEnv(), nil
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

func fromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Explorer: ExplorerConfig{
			BaseURL: getEnv("EXPLORER_BASE_URL", ""),
			APIKey:  getEnv("EXPLORER_API_KEY", ""),
		},
		Assistant: AssistantConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
		},
		Jobs: JobsConfig{
			MaxConcurrent: getEnvInt("JOBS_MAX_CONCURRENT", 4),
			Retention:     getEnv("JOBS_RETENTION", "1h"),
		},
		History: HistoryConfig{
			Path:    getEnv("HISTORY_DB_PATH", "quantumchain.db"),
			Enabled: getEnv("HISTORY_ENABLED", "true") == "true",
		},
		Slack: SlackConfig{
			WebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		},
	}

	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Jobs.MaxConcurrent <= 0 {
		cfg.Jobs.MaxConcurrent = 4
	}
	if cfg.Jobs.DefaultShots <= 0 {
		cfg.Jobs.DefaultShots = 1024
	}
	if cfg.Jobs.MaxShots <= 0 {
		cfg.Jobs.MaxShots = 8192
	}
	if cfg.Jobs.Retention == "" {
		cfg.Jobs.Retention = "1h"
	}
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = "gpt-4o-mini"
	}
	if cfg.Tasks.MaxConcurrent <= 0 {
		cfg.Tasks.MaxConcurrent = 2
	}
}

// LoadProviders reads the provider catalog, walking up from the working
// directory so binaries started from subdirectories still find it.
func LoadProviders() ([]types.Provider, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	var configPath string
	for i := 0; i < 3; i++ {
		configPath = filepath.Join(wd, "config", "providers.yaml")
		if _, err := os.Stat(configPath); err == nil {
			break
		}

		if i == 0 {
			configPath = filepath.Join(wd, "providers.yaml")
			if _, err := os.Stat(configPath); err == nil {
				break
			}
		}

		wd = filepath.Dir(wd)
		if wd == "/" {
			return nil, fmt.Errorf("config directory not found")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file ProvidersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return file.Providers, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
