package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BDNK1/netflow/cli/internal/security"
	"github.com/BDNK1/netflow/runtime"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory.
const FileName = "netflow.yaml"

// EnvPrefix prefixes environment overrides, e.g. NETFLOW_HTTP_TIMEOUT.
const EnvPrefix = "NETFLOW"

// Config represents the netflow.yaml structure
type Config struct {
	Name         string          `mapstructure:"name"`
	ScriptsDir   string          `mapstructure:"scripts_dir" validate:"required"`
	Accessor     string          `mapstructure:"accessor" validate:"oneof=http browser"`
	MaxJumpDepth int             `mapstructure:"max_jump_depth" validate:"gte=0"`
	Log          LogConfig       `mapstructure:"log"`
	Serve        ServeConfig     `mapstructure:"serve"`
	Telemetry    TelemetryConfig `mapstructure:"telemetry"`

	// Raw accessor sections, applied over the accessors' own tag defaults.
	HTTP    map[string]any `mapstructure:"http"`
	Browser map[string]any `mapstructure:"browser"`

	// ProjectDir is the directory holding the config file, or the working directory.
	ProjectDir string `mapstructure:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
	Logs        bool   `mapstructure:"logs"`
	Metrics     bool   `mapstructure:"metrics"`
}

// Keys that may be set from the environment without appearing in the file.
var envKeys = []string{
	"http.timeout", "http.max_retries", "http.retry_wait_ms", "http.max_redirects",
	"http.user_agent", "http.proxy", "http.insecure_skip_verify", "http.debug",
	"browser.headful", "browser.no_sandbox", "browser.remote_url", "browser.exec_path",
	"browser.user_agent", "browser.navigation_timeout", "browser.load_delay",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scripts_dir", "scripts")
	v.SetDefault("accessor", "http")
	v.SetDefault("max_jump_depth", runtime.DefaultMaxJumpDepth)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.service_name", "netflow")
	v.SetDefault("telemetry.logs", true)
	v.SetDefault("telemetry.metrics", true)
}

// Load reads the config file at path, or netflow.yaml in the working
// directory when path is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	projectDir := "."
	if path != "" {
		v.SetConfigFile(path)
		projectDir = filepath.Dir(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ProjectDir = projectDir
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config's field rules and that the scripts directory
// stays inside the project directory.
func (c *Config) Validate() error {
	if err := runtime.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if filepath.IsAbs(c.ScriptsDir) {
		return nil
	}
	if err := security.ValidatePathWithinBoundary(c.ProjectDir, c.ScriptsDirPath()); err != nil {
		return fmt.Errorf("invalid scripts_dir: %w", err)
	}
	return nil
}

// ApplyDefaults fills in missing optional fields with defaults
func (c *Config) ApplyDefaults() {
	if c.ProjectDir == "" {
		c.ProjectDir = "."
	}
	if c.Name == "" {
		c.Name = getDirectoryName(c.ProjectDir)
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
}

// ScriptsDirPath resolves ScriptsDir against the project directory.
func (c *Config) ScriptsDirPath() string {
	if filepath.IsAbs(c.ScriptsDir) {
		return c.ScriptsDir
	}
	return filepath.Join(c.ProjectDir, c.ScriptsDir)
}

// getDirectoryName extracts the last component of a path
func getDirectoryName(path string) string {
	if path == "." {
		cwd, err := os.Getwd()
		if err != nil {
			return "netflow"
		}
		path = cwd
	}
	return filepath.Base(path)
}
