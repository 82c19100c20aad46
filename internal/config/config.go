// Package config loads server and named-pipeline configuration the way
// the original engine loaded provider profiles from the environment,
// but through viper instead of raw os.Getenv calls, so a config file,
// environment variables, and defaults all layer together.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/example/streamfusion/internal/pipelinereg"
	"github.com/example/streamfusion/pkg/logging"
)

// EnvPrefix is the prefix viper uses for environment-variable overrides,
// e.g. STREAMFUSION_SERVER_ADDR overrides server.addr.
const EnvPrefix = "STREAMFUSION"

// Config is the fully-resolved process configuration.
type Config struct {
	Server    ServerConfig             `mapstructure:"server"`
	LogLevel  string                   `mapstructure:"log_level"`
	Pipelines []pipelinereg.Definition `mapstructure:"pipelines"`
	Database  DatabaseConfig           `mapstructure:"database"`
}

// ServerConfig configures the HTTP introspection/run server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig configures the optional pgx-backed SQL source
// (internal/source.SQLIterable). Empty DSN disables it.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Load reads configuration from (in ascending priority) built-in
// defaults, a config file named streamfusion (yaml/json/toml, searched
// in the working directory and /etc/streamfusion), and
// STREAMFUSION_*-prefixed environment variables. A .env file, if
// present, is first loaded into the process environment (without
// overriding variables already set), so its entries rank with the
// environment variables, above the config file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debugf("no .env file loaded: %v", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8085")
	v.SetDefault("log_level", "info")
	v.SetDefault("database.dsn", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("streamfusion")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/streamfusion")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
		logging.Warnf("no config file found, using defaults and environment overrides")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	return &cfg, nil
}

// ParsePipelineYAML decodes a standalone YAML document of pipeline
// definitions, for callers (the "run" CLI subcommand) that want to
// point at a single pipeline file instead of the full server config.
func ParsePipelineYAML(data []byte) ([]pipelinereg.Definition, error) {
	var defs []pipelinereg.Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("config: parsing pipeline YAML: %w", err)
	}
	return defs, nil
}

// FindPipeline returns the named pipeline definition, or false if absent.
func (c *Config) FindPipeline(name string) (pipelinereg.Definition, bool) {
	for _, def := range c.Pipelines {
		if def.Name == name {
			return def, true
		}
	}
	return pipelinereg.Definition{}, false
}
