// Package config loads relay and agent configuration using Viper.
//
// Configuration is loaded from an optional YAML file with environment
// variable overrides and hardcoded defaults, the same layered model the
// original tool used for its two hardcoded dicts (SERVER_CONFIG /
// CLIENT_CONFIG), generalized to a real config loader:
//
//  1. Environment variables (GOUT_SERVER_* for the relay, GOUT_* for the agent)
//  2. YAML config file (if provided)
//  3. Hardcoded defaults matching the source tool's values
package config

// RelayConfig is the relay (server) configuration.
type RelayConfig struct {
	// ReturnIP is the public IP advertised to agents. Empty means
	// auto-discover via internal/publicip at startup.
	ReturnIP       string `yaml:"return_ip"       mapstructure:"return_ip"`
	Host           string `yaml:"host"            mapstructure:"host"`
	Port           int    `yaml:"port"            mapstructure:"port"`
	VerifyPassword string `yaml:"verify_password" mapstructure:"verify_password"`
	MaxConnections int    `yaml:"max_connections" mapstructure:"max_connections"`
	MinPort        int    `yaml:"min_port"        mapstructure:"min_port"`
	MaxPort        int    `yaml:"max_port"        mapstructure:"max_port"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	API     APIConfig     `yaml:"api"     mapstructure:"api"`
	Journal JournalConfig `yaml:"journal" mapstructure:"journal"`
}

// AgentConfig is the agent (client) configuration.
type AgentConfig struct {
	Host           string `yaml:"host"            mapstructure:"host"`
	Port           int    `yaml:"port"            mapstructure:"port"`
	VerifyPassword string `yaml:"verify_password" mapstructure:"verify_password"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// LoggingConfig controls the minimum log level.
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// APIConfig controls the relay's optional management HTTP API.
// Disabled and localhost-bound by default; it only ever exposes
// observability data, never tunnel data-plane traffic.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// JournalConfig controls the relay's tunnel event journal.
type JournalConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}
