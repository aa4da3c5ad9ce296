// Package config loads carbonconsult settings from the user config file, an
// optional project-local overlay and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Joel31000/CarbonConsult/internal/logging"
	"github.com/Joel31000/CarbonConsult/internal/submission"
	"github.com/Joel31000/CarbonConsult/internal/suggest"
	"github.com/Joel31000/CarbonConsult/internal/tabular"
)

// Environment variables read by Load.
const (
	EnvHome            = "CARBONCONSULT_HOME"
	EnvProjectDir      = "CARBONCONSULT_PROJECT_DIR"
	EnvLogLevel        = "CARBONCONSULT_LOG_LEVEL"
	EnvSuggestProvider = "CARBONCONSULT_SUGGEST_PROVIDER"
	EnvAnthropicKey    = "ANTHROPIC_API_KEY"
	EnvGeminiKey       = "GEMINI_API_KEY"
)

// DirName is the name of both the user and the project configuration
// directories.
const DirName = ".carbonconsult"

// FileName is the configuration file inside a configuration directory.
const FileName = "config.yaml"

// Validation errors.
var (
	ErrInvalidLogFormat = errors.New("invalid logging format")
	ErrInvalidExport    = errors.New("invalid export format")
	ErrInvalidProvider  = errors.New("invalid suggestion provider")
	ErrInvalidBackend   = errors.New("invalid submission backend")
	ErrInvalidTimeout   = errors.New("invalid suggestion timeout")
)

const defaultSuggestTimeoutSeconds = 60

// Config is the full carbonconsult configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Factors    FactorsConfig    `yaml:"factors"`
	Export     ExportConfig     `yaml:"export"`
	Suggest    SuggestConfig    `yaml:"suggest"`
	Submission SubmissionConfig `yaml:"submission"`
}

// LoggingConfig controls the zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
	Caller bool   `yaml:"caller,omitempty"`
}

// FactorsConfig selects the emission factor table. An empty File uses the
// built-in table.
type FactorsConfig struct {
	File string `yaml:"file,omitempty"`
}

// ExportConfig holds report defaults.
type ExportConfig struct {
	Format           string `yaml:"format"`
	ReinforcedColumn bool   `yaml:"reinforced_column"`
	Dir              string `yaml:"dir,omitempty"`
}

// SuggestConfig selects the suggestion backend. The API key only ever comes
// from the environment.
type SuggestConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	APIKey string `yaml:"-"`
}

// SubmissionConfig selects where submissions are persisted.
type SubmissionConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Export: ExportConfig{
			Format: string(tabular.FormatCSV),
		},
		Suggest: SuggestConfig{
			Provider:       suggest.ProviderNone,
			TimeoutSeconds: defaultSuggestTimeoutSeconds,
		},
		Submission: SubmissionConfig{
			Backend: submission.BackendFile,
		},
	}
}

// HomeDir returns $CARBONCONSULT_HOME, or ~/.carbonconsult.
func HomeDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Load builds the effective configuration. Defaults are overlaid in order by
// the user config file (path, or HomeDir()/config.yaml when empty), the
// project config in projectDir (if any) and the environment. Missing files
// are not errors.
func Load(path, projectDir string) (*Config, error) {
	cfg := New()

	if path == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, FileName)
	}
	if err := mergeIfExists(cfg, path); err != nil {
		return nil, err
	}

	if projectDir != "" {
		if err := mergeIfExists(cfg, filepath.Join(projectDir, FileName)); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

func mergeIfExists(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking config file %s: %w", path, err)
	}
	return ShallowMergeYAML(cfg, path)
}

// ApplyEnv applies environment overrides and picks up the API key for the
// selected provider.
func (c *Config) ApplyEnv() {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Logging.Level = lvl
	}
	if p := os.Getenv(EnvSuggestProvider); p != "" {
		c.Suggest.Provider = p
	}

	switch strings.ToLower(c.Suggest.Provider) {
	case suggest.ProviderAnthropic:
		c.Suggest.APIKey = os.Getenv(EnvAnthropicKey)
	case suggest.ProviderGemini:
		c.Suggest.APIKey = os.Getenv(EnvGeminiKey)
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "", logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if _, err := tabular.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidExport, c.Export.Format)
	}

	switch strings.ToLower(c.Suggest.Provider) {
	case "", suggest.ProviderNone, suggest.ProviderAnthropic, suggest.ProviderGemini:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Suggest.Provider)
	}
	if c.Suggest.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimeout, c.Suggest.TimeoutSeconds)
	}

	switch strings.ToLower(c.Submission.Backend) {
	case "", submission.BackendFile, submission.BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Submission.Backend)
	}
	return nil
}

// Save writes the configuration to path as YAML, creating the directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
