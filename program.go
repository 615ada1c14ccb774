package ujit

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/kolkov/ujit/internal/ast"
	"github.com/kolkov/ujit/internal/codecache"
	"github.com/kolkov/ujit/internal/compiler"
	"github.com/kolkov/ujit/internal/llvmgen"
	"github.com/kolkov/ujit/internal/masm"
	"github.com/kolkov/ujit/internal/semantic"
	"github.com/kolkov/ujit/internal/vm"
)

// Program represents a loaded program whose top level has been generated.
// Nested functions are generated when first called and shared through
// the program's code cache.
//
// It is safe for concurrent use; each call to Run creates an
// independent VM with its own global object.
type Program struct {
	config   Config
	filename string
	tree     *ast.FunctionLit
	code     *masm.Code
	cache    *codecache.Cache
}

// Stats counts events of a single run.
type Stats struct {
	StackChecks int // Stack checks executed
	Interrupts  int // Periodic interrupts serviced
	InLoopCalls int // Calls made from call sites inside loops
	Compiled    int // Nested functions generated on first call
	MaxDepth    int // Deepest call nesting reached
}

// Run executes the program and returns everything it printed. If output
// is non-nil, printed text is written there instead and the returned
// string is empty.
func (p *Program) Run(ctx context.Context, output io.Writer) (string, error) {
	var buf *bytes.Buffer
	if output == nil {
		buf = &bytes.Buffer{}
		output = buf
	}
	_, err := p.Exec(ctx, output)
	if buf != nil {
		return buf.String(), err
	}
	return "", err
}

// Exec executes the program writing printed text to output and returns
// the run's counters. The counters are valid even when err is not nil.
func (p *Program) Exec(ctx context.Context, output io.Writer) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := p.config.vmConfig()
	cfg.Output = output
	cfg.Compiler = p.cache

	machine := vm.New(cfg)
	_, err := machine.Run(ctx, p.code)

	st := machine.Stats()
	stats := Stats{
		StackChecks: st.StackChecks,
		Interrupts:  st.Interrupts,
		InLoopCalls: st.InLoopCalls,
		Compiled:    st.Compiled,
		MaxDepth:    st.MaxDepth,
	}
	if err != nil {
		return stats, runError(err)
	}
	return stats, nil
}

// Filename returns the name the program was loaded under.
func (p *Program) Filename() string {
	return p.filename
}

// Config returns the configuration the program was compiled with, with
// defaults applied.
func (p *Program) Config() Config {
	return p.config
}

// Disassemble returns a listing of the program's generated code followed
// by every nested function. Declined functions are listed with the
// reason.
func (p *Program) Disassemble() string {
	var sb strings.Builder
	sb.WriteString(p.code.Disassemble())
	for _, r := range p.precompile() {
		sb.WriteByte('\n')
		if r.Err != nil {
			sb.WriteString(";; " + generateError(r.Err).Error() + "\n")
			continue
		}
		sb.WriteString(r.Code.Disassemble())
	}
	return sb.String()
}

// LLVM lowers the program and every nested function the generator
// accepts to one LLVM IR module.
func (p *Program) LLVM() (string, error) {
	g := llvmgen.New()
	if _, err := g.AddCode(p.code); err != nil {
		return "", err
	}
	for _, r := range p.precompile() {
		if r.Err != nil {
			continue
		}
		if _, err := g.AddCode(r.Code); err != nil {
			return "", err
		}
	}
	return g.String(), nil
}

// Functions reports the support verdict of every function in the
// program, the top level first.
func (p *Program) Functions() []FunctionReport {
	return report(p.tree, p.config.RejectFor)
}

// precompile generates every nested function through the cache.
func (p *Program) precompile() []codecache.Result {
	nested := functions(p.tree)[1:]
	return p.cache.Precompile(context.Background(), nested, 0)
}

// FunctionReport is the support verdict of one function.
type FunctionReport struct {
	Location
	Name      string
	Supported bool
	Reason    string // First rejected construct; empty when supported
}

func report(tree *ast.FunctionLit, rejectFor bool) []FunctionReport {
	var out []FunctionReport
	for _, fn := range functions(tree) {
		v := semantic.CheckSupport(fn, semantic.CheckOptions{RejectFor: rejectFor})
		r := FunctionReport{
			Location:  locationOf(fn.Pos()),
			Name:      compiler.FunctionName(fn),
			Supported: v.Supported,
			Reason:    v.Reason,
		}
		if !v.Supported && v.Pos.IsValid() {
			r.Location = locationOf(v.Pos)
		}
		out = append(out, r)
	}
	return out
}

// functions lists fn and every function nested in it, outer functions
// first, in source order of their declarations and bodies.
func functions(fn *ast.FunctionLit) []*ast.FunctionLit {
	out := []*ast.FunctionLit{fn}
	if fn.Scope != nil {
		for _, d := range fn.Scope.Decls {
			if d.Fun != nil {
				out = append(out, functions(d.Fun)...)
			}
		}
	}
	for _, s := range fn.Body {
		ast.Walk(s, func(n ast.Node) bool {
			if nested, ok := n.(*ast.FunctionLit); ok {
				out = append(out, functions(nested)...)
			}
			return true
		})
	}
	return out
}
