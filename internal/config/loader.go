package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file or a directory containing
// config.yaml. ${VAR} references are replaced from the environment before
// parsing.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", absPath, err)
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DiscoverConfigDir finds the config directory by checking standard
// locations: $NEWSROUTE_CONFIG_DIR, then ~/.config/newsroute, then
// /etc/newsroute.
func DiscoverConfigDir() (string, error) {
	if dir := os.Getenv("NEWSROUTE_CONFIG_DIR"); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigDir := filepath.Join(homeDir, ".config", "newsroute")
		if _, err := os.Stat(userConfigDir); err == nil {
			return userConfigDir, nil
		}
	}
	if _, err := os.Stat("/etc/newsroute"); err == nil {
		return "/etc/newsroute", nil
	}
	return "", fmt.Errorf("no config directory found; set NEWSROUTE_CONFIG_DIR or create ~/.config/newsroute")
}

// applyDefaults fills fields the file left at their zero value.
func applyDefaults(cfg *Config) {
	defaults := Defaults()
	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}
	if cfg.Storage.ArchiveDir == "" {
		cfg.Storage.ArchiveDir = defaults.Storage.ArchiveDir
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.Routing.DispatchWorkers <= 0 {
		cfg.Routing.DispatchWorkers = defaults.Routing.DispatchWorkers
	}
	if cfg.Idle.CheckInterval <= 0 {
		cfg.Idle.CheckInterval = defaults.Idle.CheckInterval
	}
}

func validate(cfg *Config) error {
	switch cfg.Service.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("service.log_level must be debug, info, warn, or error (got %q)", cfg.Service.LogLevel)
	}
	switch cfg.Service.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}
	if cfg.API.Enabled && cfg.API.Auth.APIKey == "" {
		return fmt.Errorf("api.auth.api_key is required when the API is enabled")
	}
	return nil
}

// interpolateEnv replaces ${VAR} with environment variable values. Unset
// variables become empty strings.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
