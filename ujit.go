package ujit

import (
	"context"
	"errors"
	"os"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/astjson"
	"github.com/kolkov/ujit/internal/codecache"
	"github.com/kolkov/ujit/internal/semantic"
)

// Version is the ujit version string.
const Version = "0.1.0"

// Compile loads a program from its ESTree JSON form, resolves its scopes
// and generates code for its top level. filename is used in positions
// and may be empty. If config is nil, default configuration is used.
//
// Example:
//
//	prog, err := ujit.Compile("add.json", data, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	output, err := prog.Run(ctx, nil)
func Compile(filename string, data []byte, config *Config) (*Program, error) {
	tree, cfg, err := load(filename, data, config)
	if err != nil {
		return nil, err
	}

	cache := codecache.New(cfg.CacheSize, cfg.compilerOptions())
	code, err := cache.Compile(tree)
	if err != nil {
		return nil, generateError(err)
	}
	return &Program{
		config:   cfg,
		filename: filename,
		tree:     tree,
		code:     code,
		cache:    cache,
	}, nil
}

// CompileJSON is Compile for input without a file name.
func CompileJSON(data []byte, config *Config) (*Program, error) {
	return Compile("", data, config)
}

// CompileFile reads and compiles the named file.
func CompileFile(path string, config *Config) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(path, data, config)
}

// MustCompile is like CompileJSON but panics if the program cannot be
// compiled. It simplifies initialization of global program variables.
func MustCompile(data string) *Program {
	prog, err := CompileJSON([]byte(data), nil)
	if err != nil {
		panic(err)
	}
	return prog
}

// Run compiles and runs a program once and returns its printed output.
// For repeated execution of the same program, use Compile followed by
// Program.Run.
func Run(ctx context.Context, data []byte, config *Config) (string, error) {
	prog, err := CompileJSON(data, config)
	if err != nil {
		return "", err
	}
	return prog.Run(ctx, nil)
}

// Check loads a program and reports the support verdict of every
// function without generating code. A program the generator declines
// is not an error here.
func Check(filename string, data []byte, config *Config) ([]FunctionReport, error) {
	tree, cfg, err := load(filename, data, config)
	if err != nil {
		return nil, err
	}
	return report(tree, cfg.RejectFor), nil
}

// load runs the front end: configuration, loading and scope resolution.
func load(filename string, data []byte, config *Config) (*ast.FunctionLit, Config, error) {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, cfg, &CompileError{Message: err.Error(), Err: err}
	}

	tree, err := astjson.LoadFile(filename, data)
	if err != nil {
		return nil, cfg, loadError(err)
	}
	if _, err := semantic.Resolve(tree); err != nil {
		return nil, cfg, generateError(err)
	}
	return tree, cfg, nil
}

// IsUnsupported reports whether err means the generator declined a
// function.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
