package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docfilter.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearFilterEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DF_FILTER_API_HOST", "DF_FILTER_API_PORT", "DF_FILTER_API_MAX_CONNECTIONS",
		"DF_FILTER_API_MAX_BATCH_SIZE", "DF_FILTER_API_DESCEND_SEQUENCES", "DF_FILTER_API_AUDIT_LOG",
		"DF_FILTER_API_DATA_DIR", "DF_FILTER_API_DATABASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearFilterEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	want := DefaultFilterAPIConfig()
	if *cfg != *want {
		t.Errorf("LoadConfig() = %+v, want %+v", *cfg, *want)
	}
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearFilterEnv(t)
	t.Setenv("DF_FILTER_API_PORT", "9999")
	t.Setenv("DF_FILTER_API_HOST", "127.0.0.1")
	t.Setenv("DF_FILTER_API_DESCEND_SEQUENCES", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Host)
	}
	if !cfg.DescendSequences {
		t.Error("DescendSequences = false, want true")
	}
}

func TestLoadConfig_File(t *testing.T) {
	clearFilterEnv(t)
	path := writeConfig(t, `filter_api:
  port: 9090
  request_timeout: 5s
  max_batch_size: 250
  audit_log: true
  data_dir: /var/lib/docfilter
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.MaxBatchSize != 250 {
		t.Errorf("MaxBatchSize = %d, want 250", cfg.MaxBatchSize)
	}
	if !cfg.AuditLog || cfg.DataDir != "/var/lib/docfilter" {
		t.Errorf("AuditLog = %v, DataDir = %s", cfg.AuditLog, cfg.DataDir)
	}
}

func TestLoadConfig_EnvironmentBeatsFile(t *testing.T) {
	clearFilterEnv(t)
	t.Setenv("DF_FILTER_API_PORT", "8080")
	path := writeConfig(t, "filter_api:\n  port: 9090\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want environment value 8080", cfg.Port)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port above range", map[string]string{"DF_FILTER_API_PORT": "70000"}},
		{"negative max_connections", map[string]string{"DF_FILTER_API_MAX_CONNECTIONS": "-1"}},
		{"batch above hard limit", map[string]string{"DF_FILTER_API_MAX_BATCH_SIZE": "20000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearFilterEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(""); err == nil {
				t.Error("LoadConfig() expected validation error")
			}
		})
	}
}

func TestLoadConfig_RejectsSecretsInFile(t *testing.T) {
	clearFilterEnv(t)
	path := writeConfig(t, `filter_api:
  host: "localhost"
  hmac_secret: "should_be_rejected"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() expected error for secret in config file")
	}
	if err.Error() != "HMAC secrets not allowed in config files (use DF_HMAC_SECRET environment variable)" {
		t.Errorf("LoadConfig() error = %v", err)
	}
}

func TestLoadConfig_AllowsSecretsInEnvironment(t *testing.T) {
	clearFilterEnv(t)
	clearSecretEnv(t)
	t.Setenv("DF_HMAC_SECRET", testSecretA)

	if _, err := LoadConfig(writeConfig(t, "filter_api:\n  port: 9090\n")); err != nil {
		t.Errorf("LoadConfig() error = %v, want nil with secret in environment", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearFilterEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}
