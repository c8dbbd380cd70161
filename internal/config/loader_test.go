package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults when nothing is set", func(t *testing.T) {
		cfg, err := Load(Options{
			EnvFile:   writeFile(t, "empty.env", ""),
			LookupEnv: envMap(nil),
		})
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 8080 || cfg.Storage != StorageSQLite || cfg.SQLitePath != "data/queue.db" {
			t.Fatalf("unexpected defaults %+v", cfg)
		}
		if cfg.SnapshotWindow != 30*time.Minute || cfg.ShutdownTimeout != 10*time.Second {
			t.Fatalf("unexpected duration defaults %+v", cfg)
		}
		if cfg.Location == nil || cfg.Location.String() != "Asia/Tehran" {
			t.Fatalf("expected Asia/Tehran location, got %v", cfg.Location)
		}
	})

	t.Run("layers yaml, dotenv and environment", func(t *testing.T) {
		yamlPath := writeFile(t, "queue.yaml", strings.Join([]string{
			"http_port: 9000",
			"storage: memory",
			"timezone: UTC",
			"snapshot_window: 15m",
			"log_level: debug",
		}, "\n"))
		envPath := writeFile(t, "queue.env", strings.Join([]string{
			"QUEUE_HTTP_PORT=9100",
			"QUEUE_LOG_FORMAT=text",
		}, "\n"))

		cfg, err := Load(Options{
			ConfigFile: yamlPath,
			EnvFile:    envPath,
			LookupEnv: envMap(map[string]string{
				"QUEUE_HTTP_PORT":             "9200",
				"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4317",
				"OTEL_EXPORTER_OTLP_INSECURE": "true",
			}),
		})
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9200 {
			t.Fatalf("environment must win over dotenv and yaml, got %d", cfg.HTTPPort)
		}
		if cfg.LogFormat != "text" {
			t.Fatalf("dotenv value not applied, got %q", cfg.LogFormat)
		}
		if cfg.Storage != StorageMemory || cfg.LogLevel != "debug" || cfg.SnapshotWindow != 15*time.Minute {
			t.Fatalf("yaml values not applied: %+v", cfg)
		}
		if cfg.Location != time.UTC && cfg.Location.String() != "UTC" {
			t.Fatalf("expected UTC, got %v", cfg.Location)
		}
		if cfg.OTLPEndpoint != "collector:4317" || !cfg.OTLPInsecure {
			t.Fatalf("otel settings not applied: %+v", cfg)
		}
	})

	t.Run("reads the config file named by the environment", func(t *testing.T) {
		yamlPath := writeFile(t, "queue.yaml", "http_port: 7000\n")

		cfg, err := Load(Options{
			EnvFile:   writeFile(t, "empty.env", ""),
			LookupEnv: envMap(map[string]string{EnvConfigFile: yamlPath}),
		})
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 7000 {
			t.Fatalf("expected port from file, got %d", cfg.HTTPPort)
		}
	})

	t.Run("lists every invalid key", func(t *testing.T) {
		_, err := Load(Options{
			EnvFile: writeFile(t, "empty.env", ""),
			LookupEnv: envMap(map[string]string{
				"QUEUE_HTTP_PORT":       "eighty",
				"QUEUE_TIMEZONE":        "Mars/Olympus",
				"QUEUE_SNAPSHOT_WINDOW": "7m",
				"QUEUE_STORAGE":         "postgres",
				"QUEUE_LOG_LEVEL":       "loud",
			}),
		})
		if err == nil {
			t.Fatalf("expected error")
		}
		want := "config: invalid values: QUEUE_HTTP_PORT, QUEUE_LOG_LEVEL, QUEUE_SNAPSHOT_WINDOW, QUEUE_STORAGE, QUEUE_TIMEZONE"
		if err.Error() != want {
			t.Fatalf("unexpected error message:\n got %q\nwant %q", err.Error(), want)
		}
	})

	t.Run("requires a path for sqlite storage", func(t *testing.T) {
		yamlPath := writeFile(t, "queue.yaml", "sqlite_path: \"\"\n")

		_, err := Load(Options{
			ConfigFile: yamlPath,
			EnvFile:    writeFile(t, "empty.env", ""),
			LookupEnv:  envMap(nil),
		})
		if err == nil || !strings.Contains(err.Error(), EnvSQLitePath) {
			t.Fatalf("expected %s error, got %v", EnvSQLitePath, err)
		}
	})

	t.Run("rejects a bad otel endpoint", func(t *testing.T) {
		_, err := Load(Options{
			EnvFile:   writeFile(t, "empty.env", ""),
			LookupEnv: envMap(map[string]string{EnvOTLPEndpoint: "not a host"}),
		})
		if err == nil || !strings.Contains(err.Error(), EnvOTLPEndpoint) {
			t.Fatalf("expected %s error, got %v", EnvOTLPEndpoint, err)
		}
	})

	t.Run("fails on a missing explicit env file", func(t *testing.T) {
		_, err := Load(Options{
			EnvFile:   filepath.Join(t.TempDir(), "missing.env"),
			LookupEnv: envMap(nil),
		})
		if err == nil {
			t.Fatalf("expected error for missing env file")
		}
	})

	t.Run("fails on malformed yaml", func(t *testing.T) {
		yamlPath := writeFile(t, "queue.yaml", "http_port: [\n")

		_, err := Load(Options{ConfigFile: yamlPath, LookupEnv: envMap(nil)})
		if err == nil {
			t.Fatalf("expected parse error")
		}
	})
}
