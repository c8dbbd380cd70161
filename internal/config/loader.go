// Package config loads the queue service settings from defaults, an optional
// YAML file, an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Environment variable names.
const (
	EnvConfigFile        = "QUEUE_CONFIG_FILE"
	EnvHTTPPort          = "QUEUE_HTTP_PORT"
	EnvStorage           = "QUEUE_STORAGE"
	EnvSQLitePath        = "QUEUE_SQLITE_PATH"
	EnvSQLiteBusyTimeout = "QUEUE_SQLITE_BUSY_TIMEOUT"
	EnvTimezone          = "QUEUE_TIMEZONE"
	EnvLogLevel          = "QUEUE_LOG_LEVEL"
	EnvLogFormat         = "QUEUE_LOG_FORMAT"
	EnvSnapshotWindow    = "QUEUE_SNAPSHOT_WINDOW"
	EnvShutdownTimeout   = "QUEUE_SHUTDOWN_TIMEOUT"
	EnvOTLPEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
)

const defaultEnvFile = ".env"

// Config captures the settings of the queue service.
type Config struct {
	HTTPPort          int           `yaml:"http_port" validate:"min=1,max=65535"`
	Storage           string        `yaml:"storage" validate:"oneof=sqlite memory"`
	SQLitePath        string        `yaml:"sqlite_path" validate:"required_if=Storage sqlite"`
	SQLiteBusyTimeout time.Duration `yaml:"sqlite_busy_timeout" validate:"gte=0s"`
	Timezone          string        `yaml:"timezone" validate:"required,timezone"`
	LogLevel          string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat         string        `yaml:"log_format" validate:"oneof=json text"`
	SnapshotWindow    time.Duration `yaml:"snapshot_window" validate:"gte=1m,lte=1h,divides_hour"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gt=0s"`
	OTLPEndpoint      string        `yaml:"otlp_endpoint" validate:"omitempty,hostname_port"`
	OTLPInsecure      bool          `yaml:"otlp_insecure"`

	// Location is resolved from Timezone after validation.
	Location *time.Location `yaml:"-"`
}

// Options controls where Load looks for settings.
type Options struct {
	// ConfigFile names a YAML file. QUEUE_CONFIG_FILE is used when empty.
	ConfigFile string
	// EnvFile names a dotenv file. When empty, ".env" is read if it exists.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HTTPPort:          8080,
		Storage:           StorageSQLite,
		SQLitePath:        "data/queue.db",
		SQLiteBusyTimeout: 5 * time.Second,
		Timezone:          "Asia/Tehran",
		LogLevel:          "info",
		LogFormat:         "json",
		SnapshotWindow:    30 * time.Minute,
		ShutdownTimeout:   10 * time.Second,
	}
}

// fieldKeys maps struct fields to the variables that set them, for error reports.
var fieldKeys = map[string]string{
	"HTTPPort":          EnvHTTPPort,
	"Storage":           EnvStorage,
	"SQLitePath":        EnvSQLitePath,
	"SQLiteBusyTimeout": EnvSQLiteBusyTimeout,
	"Timezone":          EnvTimezone,
	"LogLevel":          EnvLogLevel,
	"LogFormat":         EnvLogFormat,
	"SnapshotWindow":    EnvSnapshotWindow,
	"ShutdownTimeout":   EnvShutdownTimeout,
	"OTLPEndpoint":      EnvOTLPEndpoint,
	"OTLPInsecure":      EnvOTLPInsecure,
}

// Load assembles the configuration. Every offending key is reported in a
// single error.
func Load(opts Options) (Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()

	configFile := strings.TrimSpace(opts.ConfigFile)
	if configFile == "" {
		if value, ok := lookup(EnvConfigFile); ok {
			configFile = strings.TrimSpace(value)
		}
	}
	if configFile != "" {
		if err := loadYAML(configFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return Config{}, err
	}
	env := func(key string) (string, bool) {
		if value, ok := lookup(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}

	invalid := applyEnv(&cfg, env)
	invalid = append(invalid, validate(cfg)...)
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid values: %s", strings.Join(dedupe(invalid), ", "))
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid values: %s", EnvTimezone)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// readEnvFile returns the variables of a dotenv file. The implicit ".env" is
// optional; an explicitly named file must exist.
func readEnvFile(path string) (map[string]string, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func applyEnv(cfg *Config, env func(string) (string, bool)) []string {
	var invalid []string

	str := func(key string, dst *string) {
		if value, ok := env(key); ok && strings.TrimSpace(value) != "" {
			*dst = strings.TrimSpace(value)
		}
	}
	duration := func(key string, dst *time.Duration) {
		value, ok := env(key)
		if !ok || strings.TrimSpace(value) == "" {
			return
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			invalid = append(invalid, key)
			return
		}
		*dst = parsed
	}

	if value, ok := env(EnvHTTPPort); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			invalid = append(invalid, EnvHTTPPort)
		} else {
			cfg.HTTPPort = port
		}
	}
	str(EnvStorage, &cfg.Storage)
	str(EnvSQLitePath, &cfg.SQLitePath)
	duration(EnvSQLiteBusyTimeout, &cfg.SQLiteBusyTimeout)
	str(EnvTimezone, &cfg.Timezone)
	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvLogFormat, &cfg.LogFormat)
	duration(EnvSnapshotWindow, &cfg.SnapshotWindow)
	duration(EnvShutdownTimeout, &cfg.ShutdownTimeout)
	str(EnvOTLPEndpoint, &cfg.OTLPEndpoint)
	if value, ok := env(EnvOTLPInsecure); ok && strings.TrimSpace(value) != "" {
		insecure, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			invalid = append(invalid, EnvOTLPInsecure)
		} else {
			cfg.OTLPInsecure = insecure
		}
	}

	cfg.Storage = strings.ToLower(cfg.Storage)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	return invalid
}

var validate = newValidator()

func newValidator() func(Config) []string {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("divides_hour", func(fl validator.FieldLevel) bool {
		window := time.Duration(fl.Field().Int())
		return window > 0 && time.Hour%window == 0 && window%time.Minute == 0
	})

	return func(cfg Config) []string {
		err := v.Struct(cfg)
		if err == nil {
			return nil
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []string{err.Error()}
		}
		keys := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			if key, ok := fieldKeys[fe.StructField()]; ok {
				keys = append(keys, key)
				continue
			}
			keys = append(keys, fe.StructField())
		}
		return keys
	}
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
