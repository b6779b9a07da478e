package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// --- Configuration Structs ---

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type CompareConfig struct {
	ConfigFile string `mapstructure:"config_file"` // saved key columns + mapping
	WorkDir    string `mapstructure:"work_dir"`    // where input files are discovered
}

type ExportConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Prefork bool   `mapstructure:"prefork"`
}

type UIConfig struct {
	Spinner bool `mapstructure:"spinner"`
	Color   bool `mapstructure:"color"`
}

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Compare CompareConfig `mapstructure:"compare"`
	Export  ExportConfig  `mapstructure:"export"`
	Server  ServerConfig  `mapstructure:"server"`
	UI      UIConfig      `mapstructure:"ui"`
}

// EnvPrefix prefixes environment overrides, e.g. TABMATCH_EXPORT_FORMAT.
const EnvPrefix = "TABMATCH"

// DotEnvFile is loaded into the environment before settings are read, when present.
var DotEnvFile = ".env"

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "tabmatch.log")
	v.SetDefault("compare.config_file", ".tabmatch-config.json")
	v.SetDefault("compare.work_dir", ".")
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.dir", ".")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.prefork", false)
	v.SetDefault("ui.spinner", true)
	v.SetDefault("ui.color", true)
}

// --- Load Configuration ---

// Default returns the built-in settings.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// LoadConfig reads settings from configPath, or from tabmatch.yaml in the
// working directory when configPath is empty. Environment variables override
// file values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", DotEnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("tabmatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log configuration error: %w", err)
	}
	if err := c.Compare.Validate(); err != nil {
		return fmt.Errorf("compare configuration error: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export configuration error: %w", err)
	}
	return c.Server.Validate()
}

func (lc *LogConfig) Validate() error {
	_, err := zapcore.ParseLevel(lc.Level)
	return validate(err == nil, "unknown log level %q", lc.Level)
}

func (cc *CompareConfig) Validate() error {
	if err := validate(strings.TrimSpace(cc.ConfigFile) != "", "config file name is required"); err != nil {
		return err
	}
	return validate(cc.WorkDir != "", "work directory is required")
}

func (ec *ExportConfig) Validate() error {
	if err := validate(ec.Format == "csv" || ec.Format == "parquet", "unsupported export format %q", ec.Format); err != nil {
		return err
	}
	return validate(ec.Dir != "", "export directory is required")
}

func (sc *ServerConfig) Validate() error {
	return validate(sc.Port != "", "server port is required")
}

// --- Top-Level Validation ---

func ValidateConfig(cfg *Config) error {
	return cfg.Validate()
}
