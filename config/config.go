package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath   = "config.yaml"
	defaultPort         = 8080
	defaultArtifactsDir = "./artifacts"
	defaultFetchTimeout = 30 * time.Second

	EchoFull = "full"
	EchoFood = "food"
)

// localOrigins are always allowed unless the origin list is configured explicitly.
var localOrigins = []string{"http://localhost:8000", "http://127.0.0.1:8000"}

// Config is the service configuration. Values come from the YAML file first, then
// environment variables, then command line flags.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Response  ResponseConfig  `yaml:"response"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type CORSConfig struct {
	Enabled        *bool    `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// IsEnabled reports whether CORS headers are emitted. Unset means enabled.
func (c CORSConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

type ArtifactsConfig struct {
	Dir             string        `yaml:"dir"`
	Model           string        `yaml:"model"`
	FoodEncoder     string        `yaml:"food_encoder"`
	CategoryEncoder string        `yaml:"category_encoder"`
	StorageEncoder  string        `yaml:"storage_encoder"`
	Scaler          string        `yaml:"scaler"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
}

type ResponseConfig struct {
	Echo string `yaml:"echo"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the config file at path (or CONFIG_PATH, or config.yaml when both are
// empty), applies environment overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "error parsing config file %s", path)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, errors.Wrapf(err, "error reading config file %s", path)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := envOverrideInt(&cfg.Server.Port, "PORT"); err != nil {
		return err
	}
	envOverride(&cfg.Server.Mode, "GIN_MODE")
	envOverride(&cfg.Artifacts.Dir, "ARTIFACTS_DIR")
	envOverride(&cfg.Response.Echo, "RESPONSE_ECHO")
	envOverride(&cfg.Log.Level, "LOG_LEVEL")
	envOverride(&cfg.Log.Format, "LOG_FORMAT")

	if v := os.Getenv("ARTIFACT_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid ARTIFACT_FETCH_TIMEOUT %q", v)
		}
		cfg.Artifacts.FetchTimeout = d
	}

	if v := os.Getenv("CORS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid CORS_ENABLED %q", v)
		}
		cfg.CORS.Enabled = &b
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("FRONTEND_URL")); v != "" {
		if cfg.CORS.AllowedOrigins == nil {
			cfg.CORS.AllowedOrigins = append([]string{}, localOrigins...)
		}
		cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.CORS.AllowedOrigins == nil {
		c.CORS.AllowedOrigins = append([]string{}, localOrigins...)
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = defaultArtifactsDir
	}
	if c.Artifacts.Model == "" {
		c.Artifacts.Model = "model.json"
	}
	if c.Artifacts.FoodEncoder == "" {
		c.Artifacts.FoodEncoder = "le_food.json"
	}
	if c.Artifacts.CategoryEncoder == "" {
		c.Artifacts.CategoryEncoder = "le_category.json"
	}
	if c.Artifacts.StorageEncoder == "" {
		c.Artifacts.StorageEncoder = "le_storage.json"
	}
	if c.Artifacts.Scaler == "" {
		c.Artifacts.Scaler = "scaler.json"
	}
	if c.Artifacts.FetchTimeout == 0 {
		c.Artifacts.FetchTimeout = defaultFetchTimeout
	}
	if c.Response.Echo == "" {
		c.Response.Echo = EchoFull
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Errorf("invalid server mode %q", c.Server.Mode)
	}
	switch c.Response.Echo {
	case EchoFull, EchoFood:
	default:
		return errors.Errorf("invalid response echo %q (want %s or %s)", c.Response.Echo, EchoFull, EchoFood)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Errorf("invalid log format %q", c.Log.Format)
	}
	if c.Artifacts.FetchTimeout < 0 {
		return errors.Errorf("invalid artifact fetch timeout %s", c.Artifacts.FetchTimeout)
	}
	for name, v := range map[string]string{
		"model":            c.Artifacts.Model,
		"food_encoder":     c.Artifacts.FoodEncoder,
		"category_encoder": c.Artifacts.CategoryEncoder,
		"storage_encoder":  c.Artifacts.StorageEncoder,
		"scaler":           c.Artifacts.Scaler,
	} {
		if strings.TrimSpace(v) == "" {
			return errors.Errorf("artifact %s is required", name)
		}
	}
	return nil
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideInt(target *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "invalid %s %q", key, v)
	}
	*target = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
