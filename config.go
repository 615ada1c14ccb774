package ujit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/kolkov/ujit/internal/compiler"
	"github.com/kolkov/ujit/internal/runtime"
	"github.com/kolkov/ujit/internal/vm"
)

// Default values for unset Config fields.
const (
	DefaultMaxNesting   = compiler.DefaultMaxNesting
	DefaultMaxCallDepth = vm.DefaultMaxCallDepth
	DefaultCacheSize    = 1024
	DefaultLogLevel     = "error"
)

// Config holds code generation and execution options. The zero value is
// usable; unset fields take their defaults.
type Config struct {
	// TraceBailout logs every function the generator declines, with the
	// reason and position. Shown at the verbose log level.
	TraceBailout bool `yaml:"trace_bailout" toml:"trace_bailout"`

	// RejectFor declines functions containing for statements.
	RejectFor bool `yaml:"reject_for" toml:"reject_for"`

	// DebugInfo records statement positions and code comments, so runtime
	// errors carry source positions.
	DebugInfo bool `yaml:"debug_info" toml:"debug_info"`

	// MaxNesting bounds statement and expression nesting during
	// generation (default: 1000).
	MaxNesting int `yaml:"max_nesting" toml:"max_nesting"`

	// MaxCallDepth bounds nested script calls; deeper calls throw a
	// RangeError (default: 2000).
	MaxCallDepth int `yaml:"max_call_depth" toml:"max_call_depth"`

	// InterruptInterval makes every n-th stack check service an
	// interrupt. Zero disables periodic interrupts.
	InterruptInterval int `yaml:"interrupt_interval" toml:"interrupt_interval"`

	// StrictFrames fails a run when a function returns with leftover
	// stack elements or handlers.
	StrictFrames bool `yaml:"strict_frames" toml:"strict_frames"`

	// CacheSize bounds the number of generated functions kept per
	// program (default: 1024).
	CacheSize int `yaml:"cache_size" toml:"cache_size"`

	// LogLevel is one of silent, error, warning or verbose
	// (default: error).
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// POSIXRegex enables leftmost-longest matching for RegExp literals.
	// When false (default), matching is leftmost-first as scripts expect.
	POSIXRegex bool `yaml:"posix_regex" toml:"posix_regex"`
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.MaxNesting <= 0 {
		c.MaxNesting = DefaultMaxNesting
	}
	if c.MaxCallDepth <= 0 {
		c.MaxCallDepth = DefaultMaxCallDepth
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// validate reports settings that cannot be defaulted.
func (c *Config) validate() error {
	if c.InterruptInterval < 0 {
		return fmt.Errorf("interrupt_interval must not be negative, got %d", c.InterruptInterval)
	}
	switch c.LogLevel {
	case "silent", "error", "warning", "verbose":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

func (c *Config) compilerOptions() compiler.Options {
	return compiler.Options{
		RejectFor:    c.RejectFor,
		DebugInfo:    c.DebugInfo,
		TraceBailout: c.TraceBailout,
		MaxNesting:   c.MaxNesting,
	}
}

func (c *Config) vmConfig() vm.Config {
	return vm.Config{
		MaxCallDepth:      c.MaxCallDepth,
		InterruptInterval: c.InterruptInterval,
		StrictFrames:      c.StrictFrames,
		Regex:             runtime.RegexConfig{POSIX: c.POSIXRegex},
	}
}

// LoadConfig reads a configuration file. The format follows the
// extension: .yaml and .yml are YAML, .toml is TOML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	cfg, err := ParseConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a configuration in the given format ("yaml",
// "yml" or "toml"), applies defaults and validates the result.
// Unknown keys are errors.
func ParseConfig(data []byte, format string) (*Config, error) {
	cfg := &Config{}
	switch format {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case "toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, err
		}
		if err := checkTOMLKeys(tree); err != nil {
			return nil, err
		}
		if err := tree.Unmarshal(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var configKeys = map[string]bool{
	"trace_bailout":      true,
	"reject_for":         true,
	"debug_info":         true,
	"max_nesting":        true,
	"max_call_depth":     true,
	"interrupt_interval": true,
	"strict_frames":      true,
	"cache_size":         true,
	"log_level":          true,
	"posix_regex":        true,
}

func checkTOMLKeys(tree *toml.Tree) error {
	for _, key := range tree.Keys() {
		if !configKeys[key] {
			pos := tree.GetPosition(key)
			return fmt.Errorf("(%d, %d): unknown key %q", pos.Line, pos.Col, key)
		}
	}
	return nil
}
