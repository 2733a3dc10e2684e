package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/accumate/docfilter/internal/types"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*FilterAPIConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultFilterAPIConfig
	v.SetDefault("filter_api.host", "0.0.0.0")
	v.SetDefault("filter_api.port", 50051)
	v.SetDefault("filter_api.max_connections", 1000)
	v.SetDefault("filter_api.request_timeout", "30s")
	v.SetDefault("filter_api.max_batch_size", 1000)
	v.SetDefault("filter_api.data_dir", "./data")
	v.SetDefault("filter_api.database_url", "")
	v.SetDefault("filter_api.descend_sequences", false)
	v.SetDefault("filter_api.audit_log", false)

	// Bind environment variables with DF_ prefix
	v.SetEnvPrefix("DF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Security check: reject secrets in config files
	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &FilterAPIConfig{
		Host:           v.GetString("filter_api.host"),
		Port:           v.GetInt("filter_api.port"),
		MaxConnections: v.GetInt("filter_api.max_connections"),
		RequestTimeout: v.GetDuration("filter_api.request_timeout"),
		MaxBatchSize:   v.GetInt("filter_api.max_batch_size"),
		DataDir:        v.GetString("filter_api.data_dir"),
		DatabaseURL:    v.GetString("filter_api.database_url"),

		DescendSequences: v.GetBool("filter_api.descend_sequences"),
		AuditLog:         v.GetBool("filter_api.audit_log"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, positive values for connections, timeout, batch size.
func validateConfig(cfg *FilterAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	if cfg.MaxBatchSize > types.MaxBatchSize {
		return fmt.Errorf("max_batch_size must be at most %d, got %d", types.MaxBatchSize, cfg.MaxBatchSize)
	}
	if cfg.AuditLog && cfg.DataDir == "" {
		return fmt.Errorf("audit_log requires data_dir")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
// Only the file is inspected; DF_HMAC_SECRET in the environment is expected.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("filter_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use DF_HMAC_SECRET environment variable)")
	}
	return nil
}
