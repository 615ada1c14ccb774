package ujit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kolkov/ujit"
)

// scenario is one entry of testdata/scenarios.yaml.
type scenario struct {
	Name        string       `yaml:"name"`
	Config      *ujit.Config `yaml:"config"`
	Program     any          `yaml:"program"`
	Output      string       `yaml:"output"`
	Error       string       `yaml:"error"`
	Unsupported string       `yaml:"unsupported"`
	Compiled    int          `yaml:"compiled"`
	StackChecks int          `yaml:"stack_checks"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "scenarios.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var scenarios []scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		t.Fatalf("decoding scenarios: %v", err)
	}
	return scenarios
}

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		t.Run(sc.Name, func(t *testing.T) {
			src, err := json.Marshal(sc.Program)
			if err != nil {
				t.Fatalf("encoding program: %v", err)
			}
			prog, err := ujit.Compile(sc.Name+".json", src, sc.Config)
			if sc.Unsupported != "" {
				var ue *ujit.UnsupportedError
				if !errors.As(err, &ue) {
					t.Fatalf("error = %v, want UnsupportedError", err)
				}
				if ue.Reason != sc.Unsupported {
					t.Errorf("reason = %q, want %q", ue.Reason, sc.Unsupported)
				}
				if !ujit.IsUnsupported(err) {
					t.Error("IsUnsupported = false")
				}
				return
			}
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}

			var out bytes.Buffer
			stats, err := prog.Exec(context.Background(), &out)
			if sc.Error != "" {
				if err == nil || !strings.Contains(err.Error(), sc.Error) {
					t.Fatalf("error = %v, want %q", err, sc.Error)
				}
				return
			}
			if err != nil {
				t.Fatalf("run error: %v", err)
			}
			if out.String() != sc.Output {
				t.Errorf("output = %q, want %q", out.String(), sc.Output)
			}
			if sc.Compiled != 0 && stats.Compiled != sc.Compiled {
				t.Errorf("compiled = %d, want %d", stats.Compiled, sc.Compiled)
			}
			if sc.StackChecks != 0 && stats.StackChecks != sc.StackChecks {
				t.Errorf("stack checks = %d, want %d", stats.StackChecks, sc.StackChecks)
			}
		})
	}
}

// JSON builders for small programs.

func program(stmts ...string) string {
	return `{"type":"Program","body":[` + strings.Join(stmts, ",") + `]}`
}

func printStmt(arg string) string {
	return `{"type":"ExpressionStatement","expression":{"type":"CallExpression",
		"callee":{"type":"Identifier","name":"print"},"arguments":[` + arg + `]}}`
}

func num(n string) string { return `{"type":"Literal","value":` + n + `}` }

func function(name, body string) string {
	return `{"type":"FunctionDeclaration","id":{"type":"Identifier","name":"` + name + `"},
		"params":[],"body":{"type":"BlockStatement","body":[` + body + `]}}`
}

const switchStmt = `{"type":"SwitchStatement","discriminant":{"type":"Literal","value":1},"cases":[]}`

func TestRun(t *testing.T) {
	out, err := ujit.Run(context.Background(), []byte(program(printStmt(num("42")))), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "42\n" {
		t.Errorf("output = %q", out)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		config *ujit.Config
		check  func(t *testing.T, err error)
	}{
		{
			name: "malformed json",
			src:  `{"type":`,
			check: func(t *testing.T, err error) {
				var le *ujit.LoadError
				if !errors.As(err, &le) {
					t.Errorf("error = %T %v, want LoadError", err, err)
				}
			},
		},
		{
			name: "let is rejected with a position",
			src:  `{"type":"Program","body":[{"type":"VariableDeclaration","kind":"let",
				"loc":{"start":{"line":1,"column":0},"end":{"line":1,"column":9}},
				"declarations":[]}]}`,
			check: func(t *testing.T, err error) {
				var le *ujit.LoadError
				if !errors.As(err, &le) || le.Line != 1 || le.Column != 1 {
					t.Errorf("error = %v", err)
				}
			},
		},
		{
			name:   "bad log level",
			src:    program(),
			config: &ujit.Config{LogLevel: "loud"},
			check: func(t *testing.T, err error) {
				var ce *ujit.CompileError
				if !errors.As(err, &ce) || !strings.Contains(ce.Message, "loud") {
					t.Errorf("error = %v", err)
				}
			},
		},
		{
			name:   "nesting limit",
			src:    program(printStmt(strings.Repeat(`{"type":"UnaryExpression","operator":"!","prefix":true,"argument":`, 40) + num("1") + strings.Repeat(`}`, 40))),
			config: &ujit.Config{MaxNesting: 10},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ujit.ErrStackOverflow) {
					t.Errorf("error = %v, want ErrStackOverflow", err)
				}
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ujit.Compile("test.json", []byte(test.src), test.config)
			if err == nil {
				t.Fatal("expected an error")
			}
			test.check(t, err)
		})
	}
}

func TestCheck(t *testing.T) {
	src := program(function("good", ""), function("bad", switchStmt), printStmt(num("1")))
	reports, err := ujit.Check("check.json", []byte(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	want := []struct {
		name   string
		reason string
	}{
		{"<program>", ""},
		{"good", ""},
		{"bad", "SwitchStatement"},
	}
	for i, w := range want {
		r := reports[i]
		if r.Name != w.name || r.Reason != w.reason || r.Supported != (w.reason == "") {
			t.Errorf("report %d = %+v, want %s %q", i, r, w.name, w.reason)
		}
	}
}

// A declined nested function only fails the run when it is called.
func TestDeclinedFunctionFailsWhenCalled(t *testing.T) {
	call := `{"type":"ExpressionStatement","expression":{"type":"CallExpression",
		"callee":{"type":"Identifier","name":"bad"},"arguments":[]}}`

	prog, err := ujit.CompileJSON([]byte(program(function("bad", switchStmt), printStmt(num("1")))), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out, err := prog.Run(context.Background(), nil); err != nil || out != "1\n" {
		t.Errorf("Run = %q, %v", out, err)
	}
	if !strings.Contains(prog.Disassemble(), "unsupported: bad: SwitchStatement") {
		t.Errorf("listing does not mention the declined function:\n%s", prog.Disassemble())
	}

	prog, err = ujit.CompileJSON([]byte(program(function("bad", switchStmt), call)), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = prog.Run(context.Background(), nil)
	var ue *ujit.UnsupportedError
	if !errors.As(err, &ue) || ue.Function != "bad" {
		t.Errorf("error = %v, want UnsupportedError for bad", err)
	}
}

func TestDisassembleAndLLVM(t *testing.T) {
	src := program(function("f", `{"type":"ReturnStatement","argument":`+num("2")+`}`), printStmt(num("1")))
	prog := ujit.MustCompile(src)

	listing := prog.Disassemble()
	for _, s := range []string{"=== Function <program>", "=== Function f", "StackCheck", "Return"} {
		if !strings.Contains(listing, s) {
			t.Errorf("listing lacks %q:\n%s", s, listing)
		}
	}

	ir, err := prog.LLVM()
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"define void @ujit.code._program_(", "define void @ujit.code.f(", "@ujit_stack_check("} {
		if !strings.Contains(ir, s) {
			t.Errorf("IR lacks %q", s)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile did not panic")
		}
	}()
	ujit.MustCompile(`not json`)
}

func TestRunCancelled(t *testing.T) {
	loop := `{"type":"WhileStatement","test":{"type":"Literal","value":true},
		"body":{"type":"BlockStatement","body":[]}}`
	prog := ujit.MustCompile(program(loop))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := prog.Run(ctx, nil)
	var re *ujit.RuntimeError
	if !errors.As(err, &re) || !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want a cancelled RuntimeError", err)
	}
}

func TestUncaughtException(t *testing.T) {
	throw := `{"type":"ThrowStatement","argument":{"type":"Literal","value":"bad"}}`
	_, err := ujit.MustCompile(program(throw)).Run(context.Background(), nil)
	if v, ok := ujit.IsUncaught(err); !ok || v != "bad" {
		t.Errorf("IsUncaught = %q, %v", v, ok)
	}
	var re *ujit.RuntimeError
	if !errors.As(err, &re) || re.Function != "<program>" {
		t.Errorf("error = %#v", err)
	}
}

// Runs share the generated code but not the global object.
func TestConcurrentRuns(t *testing.T) {
	assign := `{"type":"ExpressionStatement","expression":{"type":"AssignmentExpression","operator":"+=",
		"left":{"type":"Identifier","name":"g"},"right":` + num("1") + `}}`
	init := `{"type":"ExpressionStatement","expression":{"type":"AssignmentExpression","operator":"=",
		"left":{"type":"Identifier","name":"g"},"right":` + num("1") + `}}`
	prog := ujit.MustCompile(program(init, assign, printStmt(`{"type":"Identifier","name":"g"}`)))

	var wg sync.WaitGroup
	outputs := make([]string, 8)
	errs := make([]error, 8)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outputs[i], errs[i] = prog.Run(context.Background(), nil)
		}(i)
	}
	wg.Wait()
	for i := range outputs {
		if errs[i] != nil || outputs[i] != "2\n" {
			t.Errorf("run %d = %q, %v", i, outputs[i], errs[i])
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	yamlPath := write("ujit.yaml", "reject_for: true\nmax_call_depth: 50\nlog_level: verbose\n")
	tomlPath := write("ujit.toml", "reject_for = true\nmax_call_depth = 50\nlog_level = \"verbose\"\n")
	for _, path := range []string{yamlPath, tomlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := ujit.LoadConfig(path)
			if err != nil {
				t.Fatal(err)
			}
			if !cfg.RejectFor || cfg.MaxCallDepth != 50 || cfg.LogLevel != "verbose" {
				t.Errorf("config = %+v", cfg)
			}
			// Unset fields take their defaults.
			if cfg.MaxNesting != ujit.DefaultMaxNesting || cfg.CacheSize != ujit.DefaultCacheSize {
				t.Errorf("defaults not applied: %+v", cfg)
			}
		})
	}

	bad := []string{
		write("unknown.yaml", "allow_four: true\n"),
		write("unknown.toml", "allow_four = true\n"),
		write("negative.yaml", "interrupt_interval: -1\n"),
		write("ujit.ini", "reject_for=1\n"),
	}
	for _, path := range bad {
		if _, err := ujit.LoadConfig(path); err == nil {
			t.Errorf("LoadConfig(%s) succeeded", filepath.Base(path))
		}
	}
}

func TestEmptyConfig(t *testing.T) {
	cfg, err := ujit.ParseConfig(nil, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != ujit.DefaultLogLevel || cfg.MaxCallDepth != ujit.DefaultMaxCallDepth {
		t.Errorf("config = %+v", cfg)
	}
}
