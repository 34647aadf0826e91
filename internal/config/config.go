package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// defaults mirror the original tool's SERVER_CONFIG / CLIENT_CONFIG dicts.
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 3147
	defaultVerifyPassword = "passwd@gout"
	defaultMaxConnections = 100
	defaultMinPort        = 1024
	defaultMaxPort        = 65535
	defaultAgentHost      = "127.0.0.1"
)

// LoadRelay loads relay configuration from an optional YAML file with
// GOUT_SERVER_-prefixed environment variable overrides.
func LoadRelay(path string) (*RelayConfig, error) {
	v, err := initViper("GOUT_SERVER", path)
	if err != nil {
		return nil, err
	}

	v.SetDefault("host", defaultHost)
	v.SetDefault("port", defaultPort)
	v.SetDefault("verify_password", defaultVerifyPassword)
	v.SetDefault("max_connections", defaultMaxConnections)
	v.SetDefault("min_port", defaultMinPort)
	v.SetDefault("max_port", defaultMaxPort)
	v.SetDefault("return_ip", "")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.api_key", "")
	v.SetDefault("journal.path", "gout-events.db")

	cfg := &RelayConfig{}
	cfg.ReturnIP = v.GetString("return_ip")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.VerifyPassword = v.GetString("verify_password")
	cfg.MaxConnections = v.GetInt("max_connections")
	cfg.MinPort = v.GetInt("min_port")
	cfg.MaxPort = v.GetInt("max_port")
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.API.Enabled = v.GetBool("api.enabled")
	cfg.API.Host = v.GetString("api.host")
	cfg.API.Port = v.GetInt("api.port")
	cfg.API.APIKey = v.GetString("api.api_key")
	cfg.Journal.Path = v.GetString("journal.path")

	if err := validateRelay(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAgent loads agent configuration from an optional YAML file with
// GOUT_-prefixed environment variable overrides.
func LoadAgent(path string) (*AgentConfig, error) {
	v, err := initViper("GOUT", path)
	if err != nil {
		return nil, err
	}

	v.SetDefault("host", defaultAgentHost)
	v.SetDefault("port", defaultPort)
	v.SetDefault("verify_password", defaultVerifyPassword)
	v.SetDefault("logging.level", "INFO")

	cfg := &AgentConfig{}
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.VerifyPassword = v.GetString("verify_password")
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))

	if err := validateAgent(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initViper(envPrefix, path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

func validateRelay(cfg *RelayConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return errors.New("port must be 1..65535")
	}
	if cfg.MinPort <= 0 || cfg.MaxPort > 65535 || cfg.MinPort > cfg.MaxPort {
		return errors.New("min_port..max_port must be a valid ascending range within 1..65535")
	}
	if cfg.MaxConnections <= 0 {
		return errors.New("max_connections must be positive")
	}
	if cfg.VerifyPassword == "" {
		return errors.New("verify_password must not be empty")
	}
	if cfg.API.Enabled && (cfg.API.Port <= 0 || cfg.API.Port > 65535) {
		return errors.New("api.port must be 1..65535")
	}
	return nil
}

func validateAgent(cfg *AgentConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return errors.New("port must be 1..65535")
	}
	if cfg.VerifyPassword == "" {
		return errors.New("verify_password must not be empty")
	}
	return nil
}
