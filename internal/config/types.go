package config

import "time"

// Config is the complete newsroute configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Storage StorageConfig `yaml:"storage"`
	API     APIConfig     `yaml:"api,omitempty"`
	Routing RoutingConfig `yaml:"routing"`
	Idle    IdleConfig    `yaml:"idle,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StorageConfig defines where the SQLite database and the archived item
// files live.
type StorageConfig struct {
	Path       string `yaml:"path"`
	ArchiveDir string `yaml:"archive_dir"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// RoutingConfig defines scheme loading and dispatch behavior.
type RoutingConfig struct {
	// SchemesDir overrides the default <configDir>/schemes location.
	SchemesDir string `yaml:"schemes_dir,omitempty"`

	// DispatchWorkers bounds concurrent action dispatch for one item.
	DispatchWorkers int `yaml:"dispatch_workers"`

	// Desks maps desk names to their stages. When empty, any desk/stage
	// named by a rule is accepted.
	Desks map[string][]string `yaml:"desks,omitempty"`
}

// IdleConfig defines the provider idle monitor.
type IdleConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"`
}

// Defaults returns a configuration with sensible development defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "newsroute",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Storage: StorageConfig{
			Path:       "data/newsroute.db",
			ArchiveDir: "data/archive",
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8099",
		},
		Routing: RoutingConfig{
			DispatchWorkers: 1,
		},
		Idle: IdleConfig{
			CheckInterval: time.Minute,
		},
	}
}
