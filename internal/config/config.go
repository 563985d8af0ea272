// internal/config/config.go
//
// This package handles configuration and the .albaform directory structure.
// Every project that runs the wizard gets a .albaform/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the name of the directory we create in each project
	AppDir = ".albaform"

	defaultStepKey        = "stepOne"
	defaultImageLimit     = 3
	defaultDescriptionMax = 200
	defaultDriver         = DriverFile
)

// Storage drivers understood by internal/storage.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

const defaultProjectConfigYAML = `# albaform project configuration
version: 1

# Where step drafts survive between runs. driver: file | sqlite | memory
storage:
  driver: file
  # path is relative to .albaform/ (file: directory, sqlite: database file)
  # path: state

draft:
  step_key: stepOne

form:
  image_limit: 3
  description_max: 200
`

// StorageConfig selects the durable draft backend.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path,omitempty" env:"PATH"`
}

// DraftConfig names the durable key the step-one snapshot lives under.
type DraftConfig struct {
	StepKey string `yaml:"step_key" env:"STEP_KEY"`
}

// FormConfig carries limits the form enforces.
type FormConfig struct {
	ImageLimit     int `yaml:"image_limit" env:"IMAGE_LIMIT"`
	DescriptionMax int `yaml:"description_max" env:"DESCRIPTION_MAX"`
}

// ProjectConfig models .albaform/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Draft   DraftConfig   `yaml:"draft" envPrefix:"DRAFT_"`
	Form    FormConfig    `yaml:"form" envPrefix:"FORM_"`
}

// Config holds the runtime configuration for the wizard.
type Config struct {
	// ProjectDir is the directory where the user ran `albaform` from
	ProjectDir string

	// AppProjectDir is ProjectDir/.albaform
	AppProjectDir string

	Project ProjectConfig
}

// InitDir creates the .albaform directory structure in the given project directory.
//
// Structure created:
// .albaform/
// ├── logs/    <- albaform.log and journey.log
// ├── state/   <- durable drafts (file driver)
// └── export/  <- images written by `albaform draft export-images`
func InitDir(projectDir string) error {
	appDir := filepath.Join(projectDir, AppDir)

	dirs := []string{
		filepath.Join(appDir, "logs"),
		filepath.Join(appDir, "state"),
		filepath.Join(appDir, "export"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(appDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
// Values from config.yaml are overridden by ALBAFORM_* environment variables.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:    projectDir,
		AppProjectDir: filepath.Join(projectDir, AppDir),
		Project:       defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.AppProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.AppProjectDir, "state")
}

// ExportDir returns the directory decoded draft images are exported to
func (c *Config) ExportDir() string {
	return filepath.Join(c.AppProjectDir, "export")
}

// JournalPath returns the path of the draft activity journal
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.AppProjectDir, "config.yaml")
}

// StorageDriver returns the configured durable storage backend.
func (c *Config) StorageDriver() string {
	return c.Project.Storage.Driver
}

// StoragePath resolves the storage location for the configured driver.
// A relative storage.path is taken relative to the .albaform directory.
func (c *Config) StoragePath() string {
	if c.Project.Storage.Path != "" {
		return resolvePath(c.AppProjectDir, c.Project.Storage.Path)
	}
	if c.Project.Storage.Driver == DriverSQLite {
		return filepath.Join(c.AppProjectDir, "drafts.db")
	}
	return c.StateDir()
}

// StepKey returns the durable key for the step-one draft.
func (c *Config) StepKey() string {
	return c.Project.Draft.StepKey
}

// ImageLimit returns how many images may be attached to step one.
func (c *Config) ImageLimit() int {
	return c.Project.Form.ImageLimit
}

// DescriptionMax returns the maximum description length.
func (c *Config) DescriptionMax() int {
	return c.Project.Form.DescriptionMax
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	overrides := c.Project
	if err := env.ParseWithOptions(&overrides, env.Options{Prefix: "ALBAFORM_"}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	overrides.applyDefaults()
	overrides.normalize()
	if err := overrides.validate(); err != nil {
		return fmt.Errorf("config: env: %w", err)
	}
	c.Project = overrides
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Storage: StorageConfig{Driver: defaultDriver},
		Draft:   DraftConfig{StepKey: defaultStepKey},
		Form: FormConfig{
			ImageLimit:     defaultImageLimit,
			DescriptionMax: defaultDescriptionMax,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Form.ImageLimit == 0 {
		pc.Form.ImageLimit = defaultImageLimit
	}
	if pc.Form.DescriptionMax == 0 {
		pc.Form.DescriptionMax = defaultDescriptionMax
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Storage.Driver = strings.ToLower(strings.TrimSpace(pc.Storage.Driver))
	if pc.Storage.Driver == "" {
		pc.Storage.Driver = defaultDriver
	}
	pc.Storage.Path = strings.TrimSpace(pc.Storage.Path)
	pc.Draft.StepKey = strings.TrimSpace(pc.Draft.StepKey)
	if pc.Draft.StepKey == "" {
		pc.Draft.StepKey = defaultStepKey
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Storage.Driver {
	case DriverFile, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be 'file', 'sqlite' or 'memory'")
	}
	if pc.Form.ImageLimit < 0 {
		return fmt.Errorf("form.image_limit must be >= 0")
	}
	if pc.Form.DescriptionMax < 0 {
		return fmt.Errorf("form.description_max must be >= 0")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
