// ujit - baseline code generator for a JavaScript subset
//
// Loads programs in ESTree JSON form, as printed by any standard parser,
// and checks, disassembles, runs or lowers them to LLVM IR.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ComedicChimera/olive"

	"github.com/kolkov/ujit"
	"github.com/kolkov/ujit/internal/logging"
)

// version is set by GoReleaser at build time via -ldflags.
// For development builds, it will be "dev".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(execute(os.Args, os.Stdout))
}

// execute runs the command line and returns the exit status.
func execute(args []string, stdout io.Writer) int {
	cli := olive.NewCLI("ujit", "ujit generates and runs baseline code for ESTree programs", true)
	cli.AddSelectorArg("loglevel", "ll", "the log level", false, []string{"silent", "error", "warning", "verbose"})
	cli.AddStringArg("config", "c", "path to a YAML or TOML configuration file", false)
	cli.AddFlag("reject-for", "rf", "decline functions containing for statements")
	cli.AddFlag("trace-bailout", "tb", "log every function the generator declines")
	cli.AddFlag("no-color", "nc", "disable coloured log output")

	checkCmd := cli.AddSubcommand("check", "report which functions the generator accepts", true)
	checkCmd.AddPrimaryArg("file", "the ESTree JSON program", true)

	disasmCmd := cli.AddSubcommand("disasm", "print the generated code", true)
	disasmCmd.AddPrimaryArg("file", "the ESTree JSON program", true)

	runCmd := cli.AddSubcommand("run", "generate and run a program", true)
	runCmd.AddPrimaryArg("file", "the ESTree JSON program", true)
	runCmd.AddFlag("stats", "s", "print run counters when done")

	llvmCmd := cli.AddSubcommand("llvm", "lower the generated code to LLVM IR", true)
	llvmCmd.AddPrimaryArg("file", "the ESTree JSON program", true)
	llvmCmd.AddStringArg("output", "o", "write the module to this file instead of stdout", false)

	cli.AddSubcommand("version", "print the ujit version", false)

	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		logging.LogError("CLI Usage", err)
		return 2
	}

	if result.HasFlag("no-color") {
		logging.DisableColor()
	}
	cfg, err := loadConfig(result)
	if err != nil {
		logging.LogError("Config", err)
		return 1
	}
	logging.Initialize(cfg.LogLevel)

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "check":
		return execCheck(subResult, cfg, stdout)
	case "disasm":
		return withProgram(subResult, cfg, func(prog *ujit.Program) error {
			_, err := io.WriteString(stdout, prog.Disassemble())
			return err
		})
	case "run":
		return withProgram(subResult, cfg, func(prog *ujit.Program) error {
			return execRun(prog, subResult.HasFlag("stats"), stdout)
		})
	case "llvm":
		return withProgram(subResult, cfg, func(prog *ujit.Program) error {
			return execLLVM(prog, subResult, stdout)
		})
	case "version":
		fmt.Fprintf(stdout, "ujit %s (commit %s, built %s)\n", version, commit, date)
	}
	return 0
}

// loadConfig reads the configuration file, if any, and applies the
// command line overrides.
func loadConfig(result *olive.ArgParseResult) (*ujit.Config, error) {
	cfg := &ujit.Config{}
	if path, ok := result.Arguments["config"]; ok {
		loaded, err := ujit.LoadConfig(path.(string))
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if level, ok := result.Arguments["loglevel"]; ok {
		cfg.LogLevel = level.(string)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = ujit.DefaultLogLevel
	}
	if result.HasFlag("reject-for") {
		cfg.RejectFor = true
	}
	if result.HasFlag("trace-bailout") {
		cfg.TraceBailout = true
	}
	return cfg, nil
}

func execCheck(result *olive.ArgParseResult, cfg *ujit.Config, stdout io.Writer) int {
	path, _ := result.PrimaryArg()
	data, err := os.ReadFile(path)
	if err != nil {
		logging.LogError("File", err)
		return 1
	}
	reports, err := ujit.Check(path, data, cfg)
	if err != nil {
		logging.LogError(errorTag(err), err)
		return 1
	}

	declined := 0
	for _, r := range reports {
		if r.Supported {
			fmt.Fprintf(stdout, "ok       %s\n", r.Name)
			continue
		}
		declined++
		if r.Line != 0 {
			fmt.Fprintf(stdout, "declined %s at %s: %s\n", r.Name, r.Location, r.Reason)
		} else {
			fmt.Fprintf(stdout, "declined %s: %s\n", r.Name, r.Reason)
		}
	}
	logging.LogInfo("Check", fmt.Sprintf("%d of %d functions supported", len(reports)-declined, len(reports)))
	if !reports[0].Supported {
		return 1
	}
	return 0
}

// withProgram compiles the program named by the primary argument and
// passes it to fn, reporting any error.
func withProgram(result *olive.ArgParseResult, cfg *ujit.Config, fn func(*ujit.Program) error) int {
	path, _ := result.PrimaryArg()
	prog, err := ujit.CompileFile(path, cfg)
	if err != nil {
		logging.LogError(errorTag(err), err)
		return 1
	}
	if err := fn(prog); err != nil {
		logging.LogError(errorTag(err), err)
		return 1
	}
	return 0
}

func execRun(prog *ujit.Program, stats bool, stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := bufio.NewWriter(stdout)
	st, err := prog.Exec(ctx, out)
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	if stats {
		fmt.Fprintf(os.Stderr, "stack checks: %d\ninterrupts:   %d\nloop calls:   %d\ncompiled:     %d\nmax depth:    %d\n",
			st.StackChecks, st.Interrupts, st.InLoopCalls, st.Compiled, st.MaxDepth)
	}
	return err
}

func execLLVM(prog *ujit.Program, result *olive.ArgParseResult, stdout io.Writer) error {
	ir, err := prog.LLVM()
	if err != nil {
		return err
	}
	if path, ok := result.Arguments["output"]; ok {
		return os.WriteFile(path.(string), []byte(ir), 0o644)
	}
	_, err = io.WriteString(stdout, ir)
	return err
}

// errorTag names the stage an error comes from.
func errorTag(err error) string {
	var (
		le *ujit.LoadError
		ce *ujit.CompileError
		ue *ujit.UnsupportedError
		re *ujit.RuntimeError
	)
	switch {
	case errors.As(err, &le):
		return "Load"
	case errors.As(err, &ue):
		return "Unsupported"
	case errors.As(err, &ce):
		return "Compile"
	case errors.As(err, &re):
		return "Runtime"
	default:
		return "ujit"
	}
}
