// Package config loads rpage settings from defaults, a YAML file, RPAGE_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kk-code-lab/rpager/internal/search"
	statepkg "github.com/kk-code-lab/rpager/internal/state"
	"github.com/spf13/viper"
)

var (
	ErrInvalidLineNumbers  = errors.New("invalid line number mode")
	ErrInvalidExitStrategy = errors.New("invalid exit strategy")
)

// EnvPrefix namespaces environment overrides, e.g. RPAGE_PAGER_PROMPT.
const EnvPrefix = "RPAGE"

type Config struct {
	Pager   PagerConfig   `mapstructure:"pager"`
	Search  SearchConfig  `mapstructure:"search"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type PagerConfig struct {
	LineNumbers     string `mapstructure:"line_numbers"`
	Prompt          string `mapstructure:"prompt"`
	ExitStrategy    string `mapstructure:"exit_strategy"`
	QuitIfOneScreen bool   `mapstructure:"quit_if_one_screen"`
	Follow          bool   `mapstructure:"follow"`
}

type SearchConfig struct {
	// Engine is "re2" (default) or "pcre".
	Engine    string `mapstructure:"engine"`
	SmartCase bool   `mapstructure:"smart_case"`
}

type LoggingConfig struct {
	// File is where logs go; empty disables logging.
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Pager: PagerConfig{
			LineNumbers:  "off",
			Prompt:       "",
			ExitStrategy: "pager",
		},
		Search: SearchConfig{
			Engine:    "re2",
			SmartCase: true,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// SetDefaults registers Default() with v so every key resolves even without
// a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("pager.line_numbers", d.Pager.LineNumbers)
	v.SetDefault("pager.prompt", d.Pager.Prompt)
	v.SetDefault("pager.exit_strategy", d.Pager.ExitStrategy)
	v.SetDefault("pager.quit_if_one_screen", d.Pager.QuitIfOneScreen)
	v.SetDefault("pager.follow", d.Pager.Follow)
	v.SetDefault("search.engine", d.Search.Engine)
	v.SetDefault("search.smart_case", d.Search.SmartCase)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Init prepares v the way the rpage command reads it: defaults, the config
// file (explicit or from ConfigDir), then environment overrides. A missing
// default config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load unmarshals v and validates the result.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.LineNumbers(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ExitStrategy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Compiler(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) LineNumbers() (statepkg.LineNumbers, error) {
	mode, err := statepkg.ParseLineNumbers(c.Pager.LineNumbers)
	if err != nil {
		return statepkg.LineNumbersDisabled, fmt.Errorf("%w: %q", ErrInvalidLineNumbers, c.Pager.LineNumbers)
	}
	return mode, nil
}

func (c Config) ExitStrategy() (statepkg.ExitStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Pager.ExitStrategy)) {
	case "", "pager":
		return statepkg.ExitPager, nil
	case "process":
		return statepkg.ExitProcess, nil
	default:
		return statepkg.ExitPager, fmt.Errorf("%w: %q", ErrInvalidExitStrategy, c.Pager.ExitStrategy)
	}
}

// Compiler builds the search engine named by search.engine.
func (c Config) Compiler() (search.Compiler, error) {
	return search.CompilerFor(c.Search.Engine, c.Search.SmartCase)
}

// ConfigDir is $XDG_CONFIG_HOME/rpage, falling back to ~/.config/rpage.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rpage")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rpage"
	}
	return filepath.Join(home, ".config", "rpage")
}
