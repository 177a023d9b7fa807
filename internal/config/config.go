package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the eliash configuration.
type Config struct {
	Prompt       string       `yaml:"prompt"`
	PromptScript string       `yaml:"prompt_script"`
	HistoryFile  string       `yaml:"history_file"`
	Parser       ParserConfig `yaml:"parser"`
	Exec         ExecConfig   `yaml:"exec"`
	Audit        AuditConfig  `yaml:"audit"`
	Log          LogConfig    `yaml:"log"`
}

// ParserConfig bounds what a single line may contain.
type ParserConfig struct {
	MaxArgs   int `yaml:"max_args" validate:"gte=1,lte=256"`
	MaxStages int `yaml:"max_stages" validate:"gte=2,lte=16"`
}

// ExecConfig controls process creation.
type ExecConfig struct {
	RedirectPerm Perm `yaml:"redirect_perm" validate:"lte=511"`
}

// AuditConfig controls the line journal.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
}

// Perm is a file permission written in octal, with or without a 0 or 0o
// prefix.
type Perm uint32

func (p *Perm) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimPrefix(strings.TrimPrefix(value.Value, "0o"), "0O")
	n, err := strconv.ParseUint(raw, 8, 32)
	if err != nil {
		return fmt.Errorf("line %d: permission %q is not octal", value.Line, value.Value)
	}
	*p = Perm(n)
	return nil
}

func (p Perm) MarshalYAML() (any, error) {
	return fmt.Sprintf("%#o", uint32(p)), nil
}

func (p Perm) FileMode() os.FileMode { return os.FileMode(p) }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	share := filepath.Join(home, ".local", "share", "eliash")
	return &Config{
		Prompt:      "$ ",
		HistoryFile: filepath.Join(share, "history"),
		Parser: ParserConfig{
			MaxArgs:   10,
			MaxStages: 2,
		},
		Exec: ExecConfig{
			RedirectPerm: 0o666,
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    filepath.Join(share, "audit.jsonl"),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the config from ConfigPath. If the file doesn't exist, it
// returns the default config.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from path, fills unset fields from the defaults
// and validates the result.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.PromptScript = expandHome(cfg.PromptScript)
	cfg.HistoryFile = expandHome(cfg.HistoryFile)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges. Errors name fields by their YAML keys.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return validate.Struct(c)
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "eliash", "config.yaml")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
