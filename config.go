package divalidator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wvanhemert/DI-Validator/internal/model"
)

// Conventions describes the container API the validator recognizes.
type Conventions = model.Conventions

// DefaultConventions returns the conventions of the godi container.
func DefaultConventions() Conventions {
	return model.DefaultConventions()
}

// Config configures one analysis run.
type Config struct {
	// ProjectDir is a directory inside the main module. The workspace is
	// found by seeking upward for go.work, then go.mod.
	ProjectDir string `yaml:"project_dir"`

	// ProjectType is a value whose type is declared in the main module.
	// Only one of ProjectDir and ProjectType should be set.
	ProjectType any `yaml:"-"`

	// WorkspaceDir names the workspace root directly.
	WorkspaceDir string `yaml:"workspace_dir"`

	// MainModule selects the main module of a multi-module workspace.
	MainModule string `yaml:"main_module"`

	// Severities is an allow-list of reported severities. It also limits
	// what can fail the run. Empty allows all.
	Severities []Severity `yaml:"severities"`

	// EnableLogging writes debug logs to LogOutput, or stderr.
	EnableLogging bool      `yaml:"enable_logging"`
	LogOutput     io.Writer `yaml:"-"`

	// Logger overrides EnableLogging when set.
	Logger *slog.Logger `yaml:"-"`

	// FailOnInfo makes info findings fail the run.
	FailOnInfo bool `yaml:"fail_on_info"`

	// Concurrency bounds the per-module workers. Zero means one per module.
	Concurrency int `yaml:"concurrency"`

	// Conventions overrides parts of DefaultConventions.
	Conventions Conventions `yaml:"conventions"`
}

// LoadConfig reads a YAML configuration file. Relative directories are
// resolved against the directory of the file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, ConfigError{Field: "path", Cause: err}
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, err
	}

	base := filepath.Dir(path)
	cfg.ProjectDir = resolveDir(base, cfg.ProjectDir)
	cfg.WorkspaceDir = resolveDir(base, cfg.WorkspaceDir)
	return cfg, nil
}

// ParseConfig decodes a YAML configuration. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, ConfigError{Cause: err}
	}
	return cfg, nil
}

// Merge returns c with every field set in other applied on top.
func (c Config) Merge(other Config) Config {
	if other.ProjectDir != "" {
		c.ProjectDir = other.ProjectDir
	}
	if other.ProjectType != nil {
		c.ProjectType = other.ProjectType
	}
	if other.WorkspaceDir != "" {
		c.WorkspaceDir = other.WorkspaceDir
	}
	if other.MainModule != "" {
		c.MainModule = other.MainModule
	}
	if len(other.Severities) > 0 {
		c.Severities = other.Severities
	}
	if other.LogOutput != nil {
		c.LogOutput = other.LogOutput
	}
	if other.Logger != nil {
		c.Logger = other.Logger
	}
	if other.Concurrency != 0 {
		c.Concurrency = other.Concurrency
	}
	c.EnableLogging = c.EnableLogging || other.EnableLogging
	c.FailOnInfo = c.FailOnInfo || other.FailOnInfo
	c.Conventions = mergeConventions(c.Conventions, other.Conventions)
	return c
}

// Validate checks the configuration without touching the file system.
func (c Config) Validate() error {
	if c.ProjectDir == "" && c.ProjectType == nil && c.WorkspaceDir == "" {
		return ConfigError{Cause: ErrNoLocator}
	}
	for _, s := range c.Severities {
		if !s.IsValid() {
			return ConfigError{Field: "severities", Cause: fmt.Errorf("unknown severity %d", int(s))}
		}
	}
	if c.Concurrency < 0 {
		return ConfigError{Field: "concurrency", Cause: fmt.Errorf("must not be negative, got %d", c.Concurrency)}
	}

	conv := c.Conventions.WithDefaults()
	if conv.BuilderType != "" {
		if pkg, name := conv.BuilderPath(); pkg == "" || name == "" {
			return ConfigError{
				Field: "conventions.builder_type",
				Cause: fmt.Errorf("%w: %q is not of the form import/path.Name", ErrConventions, conv.BuilderType),
			}
		}
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	if !c.EnableLogging {
		return slog.New(slog.DiscardHandler)
	}

	out := c.LogOutput
	if out == nil {
		out = os.Stderr
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func mergeConventions(base, over Conventions) Conventions {
	if over.ContainerPackage != "" {
		base.ContainerPackage = over.ContainerPackage
	}
	if over.CollectionType != "" {
		base.CollectionType = over.CollectionType
	}
	if over.ModuleOptionType != "" {
		base.ModuleOptionType = over.ModuleOptionType
	}
	if over.BuilderType != "" {
		base.BuilderType = over.BuilderType
	}
	if over.ServicesMember != "" {
		base.ServicesMember = over.ServicesMember
	}
	if len(over.RegistrationMethods) > 0 {
		base.RegistrationMethods = over.RegistrationMethods
	}
	if over.ModulesMethod != "" {
		base.ModulesMethod = over.ModulesMethod
	}
	if over.ModuleConstructor != "" {
		base.ModuleConstructor = over.ModuleConstructor
	}
	if over.AsOption != "" {
		base.AsOption = over.AsOption
	}
	if over.ConstructorPrefix != "" {
		base.ConstructorPrefix = over.ConstructorPrefix
	}
	if len(over.EntryPointSuffixes) > 0 {
		base.EntryPointSuffixes = over.EntryPointSuffixes
	}
	if len(over.EntryPointBases) > 0 {
		base.EntryPointBases = over.EntryPointBases
	}
	if len(over.BuiltinTypes) > 0 {
		base.BuiltinTypes = over.BuiltinTypes
	}
	return base
}

func resolveDir(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
