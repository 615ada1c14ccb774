// Package ujit is a baseline code generator and virtual machine for a
// JavaScript subset.
//
// Programs arrive as ESTree JSON, the output of any standard parser.
// They are resolved, checked for support and generated in a single pass
// over the tree into code for a stack-and-accumulator machine, which the
// package can run, disassemble or lower to LLVM IR.
//
// # Quick Start
//
// For simple one-off execution:
//
//	output, err := ujit.Run(ctx, data, nil)
//
// With configuration:
//
//	output, err := ujit.Run(ctx, data, &ujit.Config{
//	    DebugInfo:    true,
//	    StrictFrames: true,
//	})
//
// # Compiled Programs
//
// For repeated execution of the same program:
//
//	prog, err := ujit.CompileFile("main.json", cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i := 0; i < n; i++ {
//	    output, err := prog.Run(ctx, nil)
//	    // ...
//	}
//
// Nested functions are generated when first called. Functions with the
// same content share generated code through the program's cache.
//
// # Supported Functions
//
// The baseline generator declines functions that use constructs it does
// not handle, such as switch statements or calls to eval. [Check]
// reports the verdict of every function without generating code; a
// declined top level makes [Compile] fail with an [UnsupportedError].
//
// # Configuration
//
// The [Config] type can be filled in directly or read with [LoadConfig]
// from a YAML or TOML file. The keys are the snake_case forms of the
// field names, for example:
//
//	debug_info: true
//	max_call_depth: 500
//	interrupt_interval: 1000
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [LoadError]: malformed or unsupported ESTree input
//   - [CompileError]: scope errors and trees nested too deeply
//   - [UnsupportedError]: a function the generator declined
//   - [RuntimeError]: uncaught exceptions and cancelled runs
//
// # Thread Safety
//
// Compiled [Program] objects are safe for concurrent use.
// Each call to [Program.Run] creates an independent VM.
package ujit
