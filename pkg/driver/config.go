package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/interpreter"
)

// RuntimeVersion is compared against the `requires` field of dotlin.yml.
const RuntimeVersion = "v0.4.0"

// ConfigFileName is looked up next to a script and in its ancestors.
const ConfigFileName = "dotlin.yml"

// ErrConfigNotFound is returned by FindConfig when no dotlin.yml exists.
var ErrConfigNotFound = errors.New(ConfigFileName + " not found")

// Config represents the parsed contents of dotlin.yml.
type Config struct {
	Path         string
	Name         string
	Requires     string
	MaxDepth     int
	MaxCallDepth int
	Fold         bool
	DCE          bool
	TypeCheck    interpreter.TypeCheckMode
	LogLevel     slog.Level
	Args         []string
}

// DefaultConfig is what applies when no dotlin.yml is found.
func DefaultConfig() *Config {
	opts := interpreter.DefaultOptions()
	return &Config{
		MaxDepth:     opts.MaxDepth,
		MaxCallDepth: opts.MaxCallDepth,
		Fold:         opts.Fold,
		DCE:          opts.DCE,
		TypeCheck:    opts.TypeCheck,
		LogLevel:     slog.LevelWarn,
	}
}

// Options converts the configuration into engine settings.
func (c *Config) Options() interpreter.Options {
	return interpreter.Options{
		MaxDepth:     c.MaxDepth,
		MaxCallDepth: c.MaxCallDepth,
		Fold:         c.Fold,
		DCE:          c.DCE,
		TypeCheck:    c.TypeCheck,
	}
}

// ValidationError aggregates configuration validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed")
	if e.Path != "" {
		b.WriteString(" for ")
		b.WriteString(e.Path)
	}
	b.WriteString(":")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

type configFile struct {
	Name         string        `yaml:"name"`
	Requires     string        `yaml:"requires"`
	MaxDepth     *int          `yaml:"max_depth"`
	MaxCallDepth *int          `yaml:"max_call_depth"`
	Optimize     *optimizeFile `yaml:"optimize"`
	TypeCheck    string        `yaml:"typecheck"`
	LogLevel     string        `yaml:"log_level"`
	Args         []string      `yaml:"args"`
}

type optimizeFile struct {
	Fold *bool `yaml:"fold"`
	DCE  *bool `yaml:"dce"`
}

// LoadConfig parses dotlin.yml from disk, returning a validated config. Every
// problem found is reported at once through a *ValidationError.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			cfg := DefaultConfig()
			cfg.Path = absPath
			return cfg, nil
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	return raw.toConfig(absPath)
}

func (cf configFile) toConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Path = path
	cfg.Name = cf.Name
	cfg.Requires = cf.Requires
	cfg.Args = cf.Args

	errs := ValidationError{Path: path}
	if cf.MaxDepth != nil {
		if *cf.MaxDepth <= 0 {
			errs.Issues = append(errs.Issues, fmt.Sprintf("max_depth must be positive, got %d", *cf.MaxDepth))
		}
		cfg.MaxDepth = *cf.MaxDepth
	}
	if cf.MaxCallDepth != nil {
		if *cf.MaxCallDepth <= 0 {
			errs.Issues = append(errs.Issues, fmt.Sprintf("max_call_depth must be positive, got %d", *cf.MaxCallDepth))
		}
		cfg.MaxCallDepth = *cf.MaxCallDepth
	}
	if cf.Optimize != nil {
		if cf.Optimize.Fold != nil {
			cfg.Fold = *cf.Optimize.Fold
		}
		if cf.Optimize.DCE != nil {
			cfg.DCE = *cf.Optimize.DCE
		}
	}
	if mode, err := interpreter.ParseTypeCheckMode(cf.TypeCheck); err != nil {
		errs.Issues = append(errs.Issues, "typecheck: "+err.Error())
	} else {
		cfg.TypeCheck = mode
	}
	if cf.LogLevel != "" {
		level, err := ParseLogLevel(cf.LogLevel)
		if err != nil {
			errs.Issues = append(errs.Issues, "log_level: "+err.Error())
		}
		cfg.LogLevel = level
	}
	if cf.Requires != "" {
		if issue := checkRequires(cf.Requires); issue != "" {
			errs.Issues = append(errs.Issues, issue)
		}
	}
	for i, arg := range cf.Args {
		if arg == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("args[%d] must be a non-empty string", i))
		}
	}

	if len(errs.Issues) > 0 {
		return nil, &errs
	}
	return cfg, nil
}

// checkRequires reports why the running version does not satisfy requires,
// or "" when it does. A leading "v" is optional.
func checkRequires(requires string) string {
	want := strings.TrimSpace(requires)
	if !strings.HasPrefix(want, "v") {
		want = "v" + want
	}
	if !semver.IsValid(want) {
		return fmt.Sprintf("requires: %q is not a semantic version", requires)
	}
	if semver.Compare(RuntimeVersion, want) < 0 {
		return fmt.Sprintf("requires: runtime %s is older than required %s", RuntimeVersion, semver.Canonical(want))
	}
	return ""
}

// ParseLogLevel accepts debug, info, warn and error in any case.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelWarn, fmt.Errorf("unknown level %q (want debug, info, warn or error)", s)
	}
	return level, nil
}

// FindConfig returns the path of the nearest dotlin.yml at or above start.
func FindConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", ConfigFileName, origin, ErrConfigNotFound)
		}
		dir = parent
	}
}

// ResolveConfig loads explicit when set, otherwise the nearest dotlin.yml
// above script. With neither, the defaults apply.
func ResolveConfig(explicit, script string) (*Config, error) {
	if explicit != "" {
		return LoadConfig(explicit)
	}
	start := "."
	if script != "" {
		start = script
	}
	path, err := FindConfig(start)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return LoadConfig(path)
}
